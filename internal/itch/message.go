package itch

// MessageType is the one-byte kind tag that opens every ITCH 5.0 frame.
type MessageType byte

// All ITCH 5.0 message types. Only a subset mutates book or ledger state;
// the rest must still be consumed at their exact length to keep the stream
// aligned.
const (
	TypeSystemEvent        MessageType = 'S'
	TypeStockDirectory     MessageType = 'R'
	TypeTradingAction      MessageType = 'H'
	TypeRegSHO             MessageType = 'Y'
	TypeParticipantPos     MessageType = 'L'
	TypeMWCBDecline        MessageType = 'V'
	TypeMWCBStatus         MessageType = 'W'
	TypeQuotingPeriod      MessageType = 'K'
	TypeLULDCollar         MessageType = 'J'
	TypeOperationalHalt    MessageType = 'h'
	TypeAddOrder           MessageType = 'A'
	TypeAddOrderMPID       MessageType = 'F'
	TypeOrderExecuted      MessageType = 'E'
	TypeOrderExecutedPrice MessageType = 'C'
	TypeOrderCancel        MessageType = 'X'
	TypeOrderDelete        MessageType = 'D'
	TypeOrderReplace       MessageType = 'U'
	TypeNonCrossTrade      MessageType = 'P'
	TypeCrossTrade         MessageType = 'Q'
	TypeBrokenTrade        MessageType = 'B'
	TypeNOII               MessageType = 'I'
	TypeDirectListing      MessageType = 'O'
	TypeRPII               MessageType = 'N'
)

// bodySizes maps each message type to the fixed number of body bytes that
// follow the one-byte tag. A frame is always 1 + bodySizes[tag] bytes long.
var bodySizes = map[MessageType]int{
	TypeSystemEvent:        11,
	TypeStockDirectory:     38,
	TypeTradingAction:      24,
	TypeRegSHO:             19,
	TypeParticipantPos:     25,
	TypeMWCBDecline:        34,
	TypeMWCBStatus:         11,
	TypeQuotingPeriod:      27,
	TypeLULDCollar:         34,
	TypeOperationalHalt:    20,
	TypeAddOrder:           35,
	TypeAddOrderMPID:       39,
	TypeOrderExecuted:      30,
	TypeOrderExecutedPrice: 35,
	TypeOrderCancel:        22,
	TypeOrderDelete:        18,
	TypeOrderReplace:       34,
	TypeNonCrossTrade:      43,
	TypeCrossTrade:         39,
	TypeBrokenTrade:        18,
	TypeNOII:               49,
	TypeDirectListing:      47,
	TypeRPII:               19,
}

// BodySize returns the fixed body length for a message type, and whether the
// type is a known ITCH 5.0 message.
func BodySize(t MessageType) (int, bool) {
	n, ok := bodySizes[t]
	return n, ok
}

// SecurityID is the venue-assigned numeric key (stock locate) identifying a
// tradable instrument for the duration of one capture.
type SecurityID uint16

// OrderRef identifies a resting order within one security. It is assigned at
// add time and reused by every subsequent lifecycle event until removal.
type OrderRef uint64

// MatchNumber identifies one realized trade within one security.
type MatchNumber uint64

// Side is the buy/sell indicator carried by add-order and non-cross trade
// messages.
type Side byte

const (
	Buy  Side = 'B'
	Sell Side = 'S'
)

// Event is the closed set of decoded messages the reconstruction engine acts
// on. Administrative messages never surface as events; the decoder consumes
// them for framing only.
type Event interface {
	event()
}

// StockDirectory announces a security and its display symbol (tag R).
type StockDirectory struct {
	Security  SecurityID
	Timestamp uint64
	Symbol    string
}

// AddOrder places a new resting order on the book (tags A and F).
// Attribution is empty for unattributed orders (tag A).
type AddOrder struct {
	Security    SecurityID
	Timestamp   uint64
	OrderRef    OrderRef
	Side        Side
	Shares      uint32
	Symbol      string
	Price       float64
	Attribution string
}

// OrderExecuted reports a full or partial execution of a resting order at its
// display price (tag E). Multiple executions against the same order are
// cumulative.
type OrderExecuted struct {
	Security  SecurityID
	Timestamp uint64
	OrderRef  OrderRef
	Shares    uint32
	Match     MatchNumber
}

// OrderExecutedPrice reports an execution at a price different from the
// display price (tag C). Non-printable executions must not enter volume
// calculations.
type OrderExecutedPrice struct {
	Security  SecurityID
	Timestamp uint64
	OrderRef  OrderRef
	Shares    uint32
	Match     MatchNumber
	Printable bool
	Price     float64
}

// OrderCancel shrinks a resting order by the cancelled share count (tag X).
type OrderCancel struct {
	Security  SecurityID
	Timestamp uint64
	OrderRef  OrderRef
	Shares    uint32
}

// OrderDelete removes a resting order entirely (tag D).
type OrderDelete struct {
	Security  SecurityID
	Timestamp uint64
	OrderRef  OrderRef
}

// OrderReplace cancels the original order reference and re-adds it under a
// new reference with fresh shares and price (tag U).
type OrderReplace struct {
	Security  SecurityID
	Timestamp uint64
	OrigRef   OrderRef
	NewRef    OrderRef
	Shares    uint32
	Price     float64
}

// NonCrossTrade reports a match against a non-displayed order (tag P).
type NonCrossTrade struct {
	Security  SecurityID
	Timestamp uint64
	OrderRef  OrderRef
	Side      Side
	Shares    uint32
	Symbol    string
	Price     float64
	Match     MatchNumber
}

// CrossTrade reports the bulk execution of an opening, closing or halt cross
// (tag Q).
type CrossTrade struct {
	Security  SecurityID
	Timestamp uint64
	Shares    uint64
	Symbol    string
	Price     float64
	Match     MatchNumber
	CrossType byte
}

// BrokenTrade voids a previously reported match (tag B).
type BrokenTrade struct {
	Security  SecurityID
	Timestamp uint64
	Match     MatchNumber
}

func (StockDirectory) event()     {}
func (AddOrder) event()           {}
func (OrderExecuted) event()      {}
func (OrderExecutedPrice) event() {}
func (OrderCancel) event()        {}
func (OrderDelete) event()        {}
func (OrderReplace) event()       {}
func (NonCrossTrade) event()      {}
func (CrossTrade) event()         {}
func (BrokenTrade) event()        {}
