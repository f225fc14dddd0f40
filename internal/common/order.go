package common

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side identifies which book a resting order belongs to and, for an
// incoming order, which side it aggresses against.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "Buy"
	}
	return "Sell"
}

// OrderType selects the matching behaviour: Limit orders may rest, Market
// orders never do.
type OrderType int

const (
	// LimitOrder rests on the book at its limit price until filled,
	// cancelled, or matched away.
	LimitOrder OrderType = iota
	// MarketOrder executes immediately against resting liquidity and
	// never rests; unfilled quantity is discarded.
	MarketOrder
)

func (t OrderType) String() string {
	if t == LimitOrder {
		return "Limit"
	}
	return "Market"
}

// Order is the engine's unit of work. ID, Symbol, Side, Type, Price and
// Timestamp are fixed at admission; Quantity decreases in place as fills
// occur while the order rests.
//
// Price is the order's limit expressed as a tick key (see internal/tick);
// it is meaningless for Market orders. Storing the tick key rather than a
// float keeps every comparison inside the core exact and total-ordered,
// per the "numeric representation" design note. Quantity is exact decimal
// for the same reason: a "positive real" quantity (spec §3) must not lose
// its fractional part or round during admission, matching or cancellation.
type Order struct {
	ID        uint64
	Symbol    string
	Side      Side
	Type      OrderType
	Quantity  decimal.Decimal // remaining, strictly decreasing as fills occur
	Price     int64           // tick key; meaningful only for LimitOrder
	Timestamp int64           // monotonic admission tick (ms), defines FIFO priority
	UserID    uint32
}

func (o Order) String() string {
	return fmt.Sprintf(
		"Order{id=%d symbol=%s side=%v type=%v qty=%s price=%d ts=%d user=%d}",
		o.ID, o.Symbol, o.Side, o.Type, o.Quantity, o.Price, o.Timestamp, o.UserID,
	)
}
