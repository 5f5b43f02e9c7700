package itch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

const priceScale = 10000 // prices are 32-bit fixed point with 4 implied decimals

var (
	// ErrUnknownMessageType means a tag byte was read that is not part of the
	// ITCH 5.0 message set. Framing is lost at that point, so the run must stop.
	ErrUnknownMessageType = errors.New("itch: unknown message type")

	// ErrTruncatedFrame means the stream ended in the middle of a frame body.
	ErrTruncatedFrame = errors.New("itch: truncated frame")
)

// Decoder reads one recorded ITCH 5.0 stream and yields the decoded events the
// reconstruction engine acts on. Administrative messages are consumed at their
// exact frame length and discarded, keeping the stream aligned.
type Decoder struct {
	r    *bufio.Reader
	buf  []byte
	seen uint64
}

// NewDecoder wraps a raw capture stream.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   bufio.NewReaderSize(r, 1<<16),
		buf: make([]byte, 64),
	}
}

// Frames returns how many frames (of any type) have been consumed so far.
func (d *Decoder) Frames() uint64 { return d.seen }

// Next returns the next book- or ledger-affecting event from the stream.
// It returns io.EOF once the capture is exhausted on a frame boundary.
// Any other error is a decode-boundary failure and processing must not
// continue past it.
func (d *Decoder) Next() (Event, error) {
	for {
		tag, err := d.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("itch: read tag: %w", err)
		}

		size, ok := BodySize(MessageType(tag))
		if !ok {
			return nil, fmt.Errorf("%w: 0x%02x after %d frames", ErrUnknownMessageType, tag, d.seen)
		}

		body := d.buf[:size]
		if _, err := io.ReadFull(d.r, body); err != nil {
			return nil, fmt.Errorf("%w: type %q: %v", ErrTruncatedFrame, tag, err)
		}
		d.seen++

		ev := decodeBody(MessageType(tag), body)
		if ev == nil {
			continue // framing-only message
		}
		return ev, nil
	}
}

// decodeBody converts one frame body into a typed event, or nil for message
// types that carry no book or ledger effect. Every body starts with stock
// locate (2), tracking number (2) and a 48-bit timestamp (6).
func decodeBody(t MessageType, b []byte) Event {
	sec := SecurityID(beUint(b[0:2]))
	ts := beUint(b[4:10])

	switch t {
	case TypeStockDirectory:
		return StockDirectory{
			Security:  sec,
			Timestamp: ts,
			Symbol:    trimSymbol(b[10:18]),
		}
	case TypeAddOrder, TypeAddOrderMPID:
		ev := AddOrder{
			Security:  sec,
			Timestamp: ts,
			OrderRef:  OrderRef(beUint(b[10:18])),
			Side:      Side(b[18]),
			Shares:    uint32(beUint(b[19:23])),
			Symbol:    trimSymbol(b[23:31]),
			Price:     price4(b[31:35]),
		}
		if t == TypeAddOrderMPID {
			ev.Attribution = trimSymbol(b[35:39])
		}
		return ev
	case TypeOrderExecuted:
		return OrderExecuted{
			Security:  sec,
			Timestamp: ts,
			OrderRef:  OrderRef(beUint(b[10:18])),
			Shares:    uint32(beUint(b[18:22])),
			Match:     MatchNumber(beUint(b[22:30])),
		}
	case TypeOrderExecutedPrice:
		return OrderExecutedPrice{
			Security:  sec,
			Timestamp: ts,
			OrderRef:  OrderRef(beUint(b[10:18])),
			Shares:    uint32(beUint(b[18:22])),
			Match:     MatchNumber(beUint(b[22:30])),
			Printable: b[30] == 'Y',
			Price:     price4(b[31:35]),
		}
	case TypeOrderCancel:
		return OrderCancel{
			Security:  sec,
			Timestamp: ts,
			OrderRef:  OrderRef(beUint(b[10:18])),
			Shares:    uint32(beUint(b[18:22])),
		}
	case TypeOrderDelete:
		return OrderDelete{
			Security:  sec,
			Timestamp: ts,
			OrderRef:  OrderRef(beUint(b[10:18])),
		}
	case TypeOrderReplace:
		return OrderReplace{
			Security:  sec,
			Timestamp: ts,
			OrigRef:   OrderRef(beUint(b[10:18])),
			NewRef:    OrderRef(beUint(b[18:26])),
			Shares:    uint32(beUint(b[26:30])),
			Price:     price4(b[30:34]),
		}
	case TypeNonCrossTrade:
		return NonCrossTrade{
			Security:  sec,
			Timestamp: ts,
			OrderRef:  OrderRef(beUint(b[10:18])),
			Side:      Side(b[18]),
			Shares:    uint32(beUint(b[19:23])),
			Symbol:    trimSymbol(b[23:31]),
			Price:     price4(b[31:35]),
			Match:     MatchNumber(beUint(b[35:43])),
		}
	case TypeCrossTrade:
		return CrossTrade{
			Security:  sec,
			Timestamp: ts,
			Shares:    beUint(b[10:18]),
			Symbol:    trimSymbol(b[18:26]),
			Price:     price4(b[26:30]),
			Match:     MatchNumber(beUint(b[30:38])),
			CrossType: b[38],
		}
	case TypeBrokenTrade:
		return BrokenTrade{
			Security:  sec,
			Timestamp: ts,
			Match:     MatchNumber(beUint(b[10:18])),
		}
	default:
		return nil
	}
}

// beUint decodes an up-to-8-byte big-endian unsigned integer.
func beUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// price4 converts a 32-bit fixed-point wire price (4 implied decimal digits)
// to its decimal value.
func price4(b []byte) float64 {
	return float64(uint32(beUint(b))) / priceScale
}

// trimSymbol strips the trailing space padding from a fixed-width text field.
func trimSymbol(b []byte) string {
	return string(bytes.TrimRight(b, " "))
}
