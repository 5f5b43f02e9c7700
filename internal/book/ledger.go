package book

import "github.com/guttosm/itchpulse/internal/itch"

// TradeRecord is one realized trade. Records are created by executions and
// trade messages, removed by broken-trade messages, and never otherwise
// mutated.
type TradeRecord struct {
	Timestamp uint64
	Shares    uint64
	Price     float64
}

// Ledger holds realized trades per security, keyed by match number. It is the
// only input to the VWAP aggregation.
type Ledger map[itch.SecurityID]map[itch.MatchNumber]TradeRecord

// NewLedger returns an empty trade ledger.
func NewLedger() Ledger {
	return make(Ledger)
}

// Get looks up a trade record.
func (l Ledger) Get(sec itch.SecurityID, match itch.MatchNumber) (TradeRecord, bool) {
	t, ok := l[sec][match]
	return t, ok
}

// insert adds a trade record. It refuses to overwrite an existing match
// number: a duplicate creation attempt reports false and leaves the ledger
// unchanged.
func (l Ledger) insert(sec itch.SecurityID, match itch.MatchNumber, t TradeRecord) bool {
	m, ok := l[sec]
	if !ok {
		m = make(map[itch.MatchNumber]TradeRecord)
		l[sec] = m
	}
	if _, exists := m[match]; exists {
		return false
	}
	m[match] = t
	return true
}

// remove drops a trade record, reporting whether it existed.
func (l Ledger) remove(sec itch.SecurityID, match itch.MatchNumber) bool {
	if _, ok := l[sec][match]; !ok {
		return false
	}
	delete(l[sec], match)
	return true
}

// Len counts all trade records across securities.
func (l Ledger) Len() int {
	n := 0
	for _, m := range l {
		n += len(m)
	}
	return n
}
