package itch

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// frame assembles one wire frame: tag byte followed by the fixed-size body.
// Fields are appended big-endian via be/ch/pad helpers.
func frame(t *testing.T, tag MessageType, fields ...[]byte) []byte {
	t.Helper()
	out := []byte{byte(tag)}
	for _, f := range fields {
		out = append(out, f...)
	}
	want, ok := BodySize(tag)
	if !ok {
		t.Fatalf("unknown tag %q", tag)
	}
	if len(out)-1 != want {
		t.Fatalf("frame %q: body %d bytes, want %d", tag, len(out)-1, want)
	}
	return out
}

func be(n int, v uint64) []byte {
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

func ch(c byte) []byte { return []byte{c} }

func sym(s string) []byte {
	out := []byte(s)
	for len(out) < 8 {
		out = append(out, ' ')
	}
	return out
}

func pad(n int) []byte { return bytes.Repeat([]byte{0}, n) }

func directoryFrame(t *testing.T, sec uint64, symbol string) []byte {
	return frame(t, TypeStockDirectory,
		be(2, sec), be(2, 0), be(6, 0), sym(symbol), pad(20))
}

func addFrame(t *testing.T, sec, ref uint64, side byte, shares uint64, symbol string, priceRaw uint64, ts uint64) []byte {
	return frame(t, TypeAddOrder,
		be(2, sec), be(2, 0), be(6, ts), be(8, ref), ch(side), be(4, shares), sym(symbol), be(4, priceRaw))
}

func execFrame(t *testing.T, sec, ref, shares, match, ts uint64) []byte {
	return frame(t, TypeOrderExecuted,
		be(2, sec), be(2, 0), be(6, ts), be(8, ref), be(4, shares), be(8, match))
}

func TestDecoder_CoreEvents(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(directoryFrame(t, 7, "ABCD"))
	stream.Write(addFrame(t, 7, 100, 'B', 500, "ABCD", 100000, 1000))
	stream.Write(execFrame(t, 7, 100, 200, 9, 2000))

	d := NewDecoder(&stream)

	ev, err := d.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	dir, ok := ev.(StockDirectory)
	if !ok {
		t.Fatalf("want StockDirectory, got %T", ev)
	}
	if dir.Security != 7 || dir.Symbol != "ABCD" {
		t.Fatalf("unexpected directory: %+v", dir)
	}

	ev, err = d.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	add, ok := ev.(AddOrder)
	if !ok {
		t.Fatalf("want AddOrder, got %T", ev)
	}
	if add.Security != 7 || add.OrderRef != 100 || add.Side != Buy || add.Shares != 500 {
		t.Fatalf("unexpected add: %+v", add)
	}
	if add.Price != 10.0 {
		t.Fatalf("price scaling: want 10.0 got %v", add.Price)
	}
	if add.Timestamp != 1000 {
		t.Fatalf("timestamp: want 1000 got %d", add.Timestamp)
	}

	ev, err = d.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	ex, ok := ev.(OrderExecuted)
	if !ok {
		t.Fatalf("want OrderExecuted, got %T", ev)
	}
	if ex.OrderRef != 100 || ex.Shares != 200 || ex.Match != 9 {
		t.Fatalf("unexpected exec: %+v", ex)
	}

	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("want EOF, got %v", err)
	}
	if d.Frames() != 3 {
		t.Fatalf("frames: want 3 got %d", d.Frames())
	}
}

func TestDecoder_SkipsAdministrativeFrames(t *testing.T) {
	var stream bytes.Buffer
	// System event (11 bytes body) and trading action (24) carry no effect.
	stream.Write(frame(t, TypeSystemEvent, be(2, 1), be(2, 0), be(6, 0), ch('O')))
	stream.Write(frame(t, TypeTradingAction, be(2, 1), be(2, 0), be(6, 0), sym("ABCD"), ch('H'), ch(' '), pad(4)))
	stream.Write(directoryFrame(t, 1, "ABCD"))

	d := NewDecoder(&stream)
	ev, err := d.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, ok := ev.(StockDirectory); !ok {
		t.Fatalf("want StockDirectory after skipping admin frames, got %T", ev)
	}
	if d.Frames() != 3 {
		t.Fatalf("frames consumed: want 3 got %d", d.Frames())
	}
}

func TestDecoder_AllKindsDecode(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(frame(t, TypeAddOrderMPID,
		be(2, 3), be(2, 0), be(6, 50), be(8, 11), ch('S'), be(4, 200), sym("WXYZ"), be(4, 123450), []byte("MPID")))
	stream.Write(frame(t, TypeOrderExecutedPrice,
		be(2, 3), be(2, 0), be(6, 60), be(8, 11), be(4, 50), be(8, 77), ch('N'), be(4, 99990)))
	stream.Write(frame(t, TypeOrderCancel,
		be(2, 3), be(2, 0), be(6, 70), be(8, 11), be(4, 25)))
	stream.Write(frame(t, TypeOrderDelete,
		be(2, 3), be(2, 0), be(6, 80), be(8, 11)))
	stream.Write(frame(t, TypeOrderReplace,
		be(2, 3), be(2, 0), be(6, 90), be(8, 11), be(8, 12), be(4, 300), be(4, 200000)))
	stream.Write(frame(t, TypeNonCrossTrade,
		be(2, 3), be(2, 0), be(6, 100), be(8, 0), ch('B'), be(4, 40), sym("WXYZ"), be(4, 111110), be(8, 55)))
	stream.Write(frame(t, TypeCrossTrade,
		be(2, 3), be(2, 0), be(6, 110), be(8, 1000), sym("WXYZ"), be(4, 222220), be(8, 56), ch('O')))
	stream.Write(frame(t, TypeBrokenTrade,
		be(2, 3), be(2, 0), be(6, 120), be(8, 55)))

	d := NewDecoder(&stream)

	ev, err := d.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	add := ev.(AddOrder)
	if add.Attribution != "MPID" || add.Side != Sell || add.Price != 12.345 {
		t.Fatalf("unexpected attributed add: %+v", add)
	}

	ev, _ = d.Next()
	ep := ev.(OrderExecutedPrice)
	if ep.Printable || ep.Price != 9.999 || ep.Match != 77 {
		t.Fatalf("unexpected exec-with-price: %+v", ep)
	}

	ev, _ = d.Next()
	if c := ev.(OrderCancel); c.Shares != 25 || c.OrderRef != 11 {
		t.Fatalf("unexpected cancel: %+v", c)
	}

	ev, _ = d.Next()
	if del := ev.(OrderDelete); del.OrderRef != 11 {
		t.Fatalf("unexpected delete: %+v", del)
	}

	ev, _ = d.Next()
	rep := ev.(OrderReplace)
	if rep.OrigRef != 11 || rep.NewRef != 12 || rep.Shares != 300 || rep.Price != 20.0 {
		t.Fatalf("unexpected replace: %+v", rep)
	}

	ev, _ = d.Next()
	nct := ev.(NonCrossTrade)
	if nct.Side != Buy || nct.Shares != 40 || nct.Match != 55 || nct.Price != 11.111 {
		t.Fatalf("unexpected non-cross trade: %+v", nct)
	}

	ev, _ = d.Next()
	ct := ev.(CrossTrade)
	if ct.Shares != 1000 || ct.Match != 56 || ct.Price != 22.222 || ct.CrossType != 'O' {
		t.Fatalf("unexpected cross trade: %+v", ct)
	}

	ev, _ = d.Next()
	if bt := ev.(BrokenTrade); bt.Match != 55 {
		t.Fatalf("unexpected broken trade: %+v", bt)
	}

	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("want EOF, got %v", err)
	}
}

func TestDecoder_UnknownTag(t *testing.T) {
	d := NewDecoder(bytes.NewReader([]byte{0x7f, 0x00}))
	_, err := d.Next()
	if !errors.Is(err, ErrUnknownMessageType) {
		t.Fatalf("want ErrUnknownMessageType, got %v", err)
	}
}

func TestDecoder_TruncatedFrame(t *testing.T) {
	full := directoryFrame(t, 1, "ABCD")
	d := NewDecoder(bytes.NewReader(full[:len(full)-5]))
	_, err := d.Next()
	if !errors.Is(err, ErrTruncatedFrame) {
		t.Fatalf("want ErrTruncatedFrame, got %v", err)
	}
}

func TestBodySizeTable(t *testing.T) {
	// Spot-check a few lengths against the ITCH 5.0 framing table.
	cases := map[MessageType]int{
		TypeSystemEvent:    11,
		TypeStockDirectory: 38,
		TypeAddOrder:       35,
		TypeAddOrderMPID:   39,
		TypeNonCrossTrade:  43,
		TypeNOII:           49,
		TypeDirectListing:  47,
	}
	for tag, want := range cases {
		got, ok := BodySize(tag)
		if !ok || got != want {
			t.Fatalf("BodySize(%q) = %d,%v want %d", tag, got, ok, want)
		}
	}
	if _, ok := BodySize('z'); ok {
		t.Fatalf("BodySize('z') should be unknown")
	}
}
