package models

// Trade is one realized trade reconstructed from a capture file, as persisted
// to the trades table. Timestamps are nanoseconds since midnight of the
// capture's trading session.
type Trade struct {
	Symbol      string
	SecurityID  uint16
	MatchNumber uint64
	Timestamp   uint64
	Quantity    uint64
	Price       float64
	SourceFile  string
}

// OpenOrder is an order still resting on the reconstructed book when the
// capture ended, persisted for diagnostics.
type OpenOrder struct {
	Symbol     string
	SecurityID uint16
	OrderRef   uint64
	Timestamp  uint64
	Quantity   uint64
	Price      float64
	SourceFile string
}
