package book

import (
	"fmt"

	"github.com/guttosm/itchpulse/internal/itch"
	"github.com/guttosm/itchpulse/internal/logger"
)

// SideFilter selects which order sides the reconstruction tracks. The original
// capture analysis followed buy-side interest only, so that is the default;
// tracking both sides is a configuration choice, not a code change.
type SideFilter int

const (
	BuyOnly SideFilter = iota
	BothSides
)

// ParseSideFilter maps the configuration value ("buy" or "both") to a filter.
func ParseSideFilter(s string) (SideFilter, error) {
	switch s {
	case "", "buy":
		return BuyOnly, nil
	case "both":
		return BothSides, nil
	default:
		return BuyOnly, fmt.Errorf("invalid side filter %q (want buy or both)", s)
	}
}

// Stats counts the state anomalies observed during one ingestion pass. None
// of them abort the run; they are isolated to the key that produced them.
type Stats struct {
	Events           uint64 // events applied (all kinds)
	DuplicateAdds    uint64 // add for a still-open order reference
	UnknownOrderRefs uint64 // execute/cancel/delete/replace against an unknown reference
	DuplicateMatches uint64 // trade creation with an existing match number
	UnknownMatches   uint64 // broken trade for an unknown match number
	OverExecutions   uint64 // decrement exceeding the remaining quantity
}

// Dispatcher owns the order book, trade ledger and symbol directory for the
// duration of one ingestion pass and applies decoded events to them in input
// order. It is not safe for concurrent use; per-security sharding across
// multiple dispatchers is the supported scaling strategy.
type Dispatcher struct {
	book   Book
	ledger Ledger
	dir    Directory
	sides  SideFilter
	stats  Stats
}

// NewDispatcher returns a dispatcher with empty state.
func NewDispatcher(sides SideFilter) *Dispatcher {
	return &Dispatcher{
		book:   NewBook(),
		ledger: NewLedger(),
		dir:    NewDirectory(),
		sides:  sides,
	}
}

// Book exposes the live order book. Callers must not mutate it while the
// ingestion pass is still running.
func (d *Dispatcher) Book() Book { return d.book }

// Ledger exposes the realized-trade ledger for the aggregation pass.
func (d *Dispatcher) Ledger() Ledger { return d.ledger }

// Directory exposes the symbol directory for the export stage.
func (d *Dispatcher) Directory() Directory { return d.dir }

// Stats returns the anomaly counters accumulated so far.
func (d *Dispatcher) Stats() Stats { return d.stats }

// tracked reports whether orders/trades on the given side enter the book and
// ledger at all. Untracked sides are decoded for framing but produce no state.
func (d *Dispatcher) tracked(s itch.Side) bool {
	return s == itch.Buy || d.sides == BothSides
}

// Apply routes one decoded event to the book, ledger or directory. State
// anomalies are counted and logged; they never fail the call.
func (d *Dispatcher) Apply(ev itch.Event) {
	d.stats.Events++

	switch m := ev.(type) {
	case itch.StockDirectory:
		d.dir[m.Security] = m.Symbol

	case itch.AddOrder:
		if !d.tracked(m.Side) {
			return
		}
		if _, exists := d.book.Get(m.Security, m.OrderRef); exists {
			d.stats.DuplicateAdds++
			logger.L().Warn().
				Uint16("security", uint16(m.Security)).
				Uint64("order_ref", uint64(m.OrderRef)).
				Msg("duplicate add for open order reference")
			return
		}
		d.book.put(m.Security, m.OrderRef, RestingOrder{
			Timestamp: m.Timestamp,
			Shares:    m.Shares,
			Price:     m.Price,
		})

	case itch.OrderExecuted:
		order, ok := d.reduce(m.Security, m.OrderRef, m.Shares)
		if !ok {
			return
		}
		d.recordTrade(m.Security, m.Match, TradeRecord{
			Timestamp: m.Timestamp,
			Shares:    uint64(m.Shares),
			Price:     order.Price,
		})

	case itch.OrderExecutedPrice:
		if _, ok := d.reduce(m.Security, m.OrderRef, m.Shares); !ok {
			return
		}
		// Non-printable executions are folded into a later bulk print;
		// recording them here would double count volume.
		if !m.Printable {
			return
		}
		d.recordTrade(m.Security, m.Match, TradeRecord{
			Timestamp: m.Timestamp,
			Shares:    uint64(m.Shares),
			Price:     m.Price,
		})

	case itch.OrderCancel:
		d.reduce(m.Security, m.OrderRef, m.Shares)

	case itch.OrderDelete:
		if _, ok := d.book.Get(m.Security, m.OrderRef); !ok {
			d.stats.UnknownOrderRefs++
			return
		}
		d.book.remove(m.Security, m.OrderRef)

	case itch.OrderReplace:
		if _, ok := d.book.Get(m.Security, m.OrigRef); !ok {
			d.stats.UnknownOrderRefs++
			return
		}
		d.book.remove(m.Security, m.OrigRef)
		d.book.put(m.Security, m.NewRef, RestingOrder{
			Timestamp: m.Timestamp,
			Shares:    m.Shares,
			Price:     m.Price,
		})

	case itch.NonCrossTrade:
		if !d.tracked(m.Side) {
			return
		}
		d.recordTrade(m.Security, m.Match, TradeRecord{
			Timestamp: m.Timestamp,
			Shares:    uint64(m.Shares),
			Price:     m.Price,
		})

	case itch.CrossTrade:
		d.recordTrade(m.Security, m.Match, TradeRecord{
			Timestamp: m.Timestamp,
			Shares:    m.Shares,
			Price:     m.Price,
		})

	case itch.BrokenTrade:
		if !d.ledger.remove(m.Security, m.Match) {
			d.stats.UnknownMatches++
		}
	}
}

// reduce applies a checked quantity decrement to a resting order. It returns
// the order state prior to the decrement, or ok=false when the reference is
// unknown (sell-side adds are never tracked, so those references land here
// too and are skipped identically).
//
// A decrement exceeding the remaining quantity is an over-execution anomaly:
// the order is clamped to zero and removed instead of letting the quantity
// wrap, which would corrupt every downstream figure for the security.
func (d *Dispatcher) reduce(sec itch.SecurityID, ref itch.OrderRef, delta uint32) (RestingOrder, bool) {
	order, ok := d.book.Get(sec, ref)
	if !ok {
		d.stats.UnknownOrderRefs++
		return RestingOrder{}, false
	}

	switch {
	case delta > order.Shares:
		d.stats.OverExecutions++
		logger.L().Warn().
			Uint16("security", uint16(sec)).
			Uint64("order_ref", uint64(ref)).
			Uint32("remaining", order.Shares).
			Uint32("decrement", delta).
			Msg("decrement exceeds remaining quantity, clamping order to zero")
		d.book.remove(sec, ref)
	case delta == order.Shares:
		d.book.remove(sec, ref)
	default:
		updated := order
		updated.Shares -= delta
		d.book.put(sec, ref, updated)
	}
	return order, true
}

// recordTrade inserts one trade record, rejecting duplicate match numbers.
func (d *Dispatcher) recordTrade(sec itch.SecurityID, match itch.MatchNumber, t TradeRecord) {
	if !d.ledger.insert(sec, match, t) {
		d.stats.DuplicateMatches++
		logger.L().Warn().
			Uint16("security", uint16(sec)).
			Uint64("match", uint64(match)).
			Msg("duplicate match number, trade rejected")
	}
}
