// Package orders defines the core order and execution value types shared by
// the matcher, the order book, and the claim ring.
//
// Key Design Decisions:
//
// 1. Fixed-Point Arithmetic: Prices are stored as int64 in cents (1/100 of a
//    dollar) to avoid floating-point errors. $150.25 is stored as 15025.
//
// 2. OrderId: an opaque string assigned by the client. Uniqueness within a
//    shard is the client's obligation; the shard does not generate ids.
//
// 3. Time Representation: timestamps use nanoseconds since Unix epoch
//    (int64) for high precision without time.Time overhead on the hot path.
package orders

import (
	"fmt"
	"time"
)

// Side is the side of an order.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ParseSide parses the wire representation of a side.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "BUY":
		return SideBuy, true
	case "SELL":
		return SideSell, true
	default:
		return 0, false
	}
}

// OrderType is the order's execution semantics. The design assumes LIMIT;
// MARKET is recognized syntactically (spec.md §3).
type OrderType uint8

const (
	OrderTypeLimit OrderType = iota
	OrderTypeMarket
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeMarket:
		return "MARKET"
	default:
		return "UNKNOWN"
	}
}

// ParseOrderType parses the wire representation of an order type. An empty
// string defaults to LIMIT per the gateway/shard request schema.
func ParseOrderType(s string) (OrderType, bool) {
	switch s {
	case "", "LIMIT":
		return OrderTypeLimit, true
	case "MARKET":
		return OrderTypeMarket, true
	default:
		return 0, false
	}
}

// Status is the lifecycle state of an order. Transitions are monotonic:
// NEW -> PARTIALLY_FILLED -> FILLED, or NEW -> FILLED.
type Status uint8

const (
	StatusNew Status = iota
	StatusPartiallyFilled
	StatusFilled
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case StatusFilled:
		return "FILLED"
	default:
		return "UNKNOWN"
	}
}

// Order is the mutable fill state of one live order. Identity fields
// (ID, Symbol, Side, Type, LimitPrice, OriginalQuantity, Timestamp) are set
// once at construction and never change; RemainingQuantity, FilledQuantity,
// and Status evolve as fills are applied.
//
// Invariants, at all times:
//   0 <= RemainingQuantity <= OriginalQuantity
//   FilledQuantity + RemainingQuantity == OriginalQuantity
//   Status == StatusFilled <=> RemainingQuantity == 0
//   Status == StatusPartiallyFilled => 0 < FilledQuantity < OriginalQuantity
type Order struct {
	ID               string
	Symbol           string
	Side             Side
	Type             OrderType
	LimitPrice       int64 // cents; ignored for MARKET orders
	OriginalQuantity int64
	Timestamp        int64 // nanoseconds since epoch

	RemainingQuantity int64
	FilledQuantity    int64
	Status            Status
}

// New constructs an Order in the NEW state with the full quantity resting.
func New(id, symbol string, side Side, typ OrderType, price, qty, ts int64) *Order {
	return &Order{
		ID:                id,
		Symbol:            symbol,
		Side:              side,
		Type:              typ,
		LimitPrice:        price,
		OriginalQuantity:  qty,
		Timestamp:         ts,
		RemainingQuantity: qty,
		Status:            StatusNew,
	}
}

// Fill applies a partial or complete execution of qty shares, advancing the
// order's fill state and status. qty must not exceed RemainingQuantity.
func (o *Order) Fill(qty int64) {
	o.RemainingQuantity -= qty
	o.FilledQuantity += qty
	if o.RemainingQuantity == 0 {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.RemainingQuantity == 0
}

// PriceString renders LimitPrice as a dollar string, e.g. "$150.25".
func (o *Order) PriceString() string {
	return FormatPrice(o.LimitPrice)
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{%s %s %s %d@%s, filled=%d, status=%s}",
		o.ID, o.Side, o.Symbol, o.RemainingQuantity, o.PriceString(), o.FilledQuantity, o.Status)
}

// MatchResult is one execution between a taker and a resting maker.
// ExecutionPrice always equals the maker's resting limit price
// (price-improvement for the taker).
type MatchResult struct {
	MatchID        string
	TakerOrderID   string
	MakerOrderID   string
	Symbol         string
	ExecutionPrice int64
	ExecutionQty   int64
	Timestamp      int64
	TakerSide      Side
}

// MatchResultSet is the ordered outcome of matching one incoming order.
// Order of Fills is the order in which maker levels/orders were consumed.
type MatchResultSet struct {
	Fills               []MatchResult
	TotalFilledQuantity int64
	IncomingFullyFilled bool

	// ResidualInserted reports whether the incoming order's unfilled LIMIT
	// remainder was inserted into the book, and ResidualInsertDuration is
	// how long that insertion took. Zero when nothing was inserted (fully
	// filled, or a MARKET order whose residual is discarded).
	ResidualInserted       bool
	ResidualInsertDuration time.Duration
}

// FormatPrice converts a price in cents to a dollar string.
func FormatPrice(cents int64) string {
	dollars := cents / 100
	remaining := cents % 100
	if remaining < 0 {
		remaining = -remaining
	}
	return fmt.Sprintf("$%d.%02d", dollars, remaining)
}
