package book

import "github.com/guttosm/itchpulse/internal/itch"

// RestingOrder is the live state of an order held on the book. Shares is the
// remaining quantity; it starts at the added quantity, only ever decreases,
// and an order whose remaining quantity reaches zero is removed rather than
// retained at zero.
type RestingOrder struct {
	Timestamp uint64  // nanoseconds since midnight, set at add/replace time
	Shares    uint32  // remaining share quantity
	Price     float64 // limit price, 4 implied decimals already applied
}

// Book holds the resting orders for every security, keyed by order reference.
type Book map[itch.SecurityID]map[itch.OrderRef]RestingOrder

// NewBook returns an empty order book.
func NewBook() Book {
	return make(Book)
}

// Get looks up a resting order.
func (b Book) Get(sec itch.SecurityID, ref itch.OrderRef) (RestingOrder, bool) {
	o, ok := b[sec][ref]
	return o, ok
}

// put inserts or overwrites an order.
func (b Book) put(sec itch.SecurityID, ref itch.OrderRef, o RestingOrder) {
	m, ok := b[sec]
	if !ok {
		m = make(map[itch.OrderRef]RestingOrder)
		b[sec] = m
	}
	m[ref] = o
}

// remove drops an order; the per-security map is kept even when it empties,
// matching the lifetime of a capture run.
func (b Book) remove(sec itch.SecurityID, ref itch.OrderRef) {
	delete(b[sec], ref)
}

// Len counts all resting orders across securities.
func (b Book) Len() int {
	n := 0
	for _, m := range b {
		n += len(m)
	}
	return n
}
