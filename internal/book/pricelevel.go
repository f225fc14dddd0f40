package book

import (
	"github.com/shopspring/decimal"

	"matchcore/internal/common"
)

// PriceLevel is the FIFO queue of resting orders at a single tick on one
// side of one symbol's book. Orders appear in admission order; every
// queued order has Quantity > 0 (spec §3 price-level invariants).
type PriceLevel struct {
	Tick   int64
	Orders []*common.Order
}

// TotalQuantity sums the remaining quantity of every order at this level.
func (l *PriceLevel) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, o := range l.Orders {
		total = total.Add(o.Quantity)
	}
	return total
}

// OrderCount returns the number of discrete orders resting at this level.
func (l *PriceLevel) OrderCount() int {
	return len(l.Orders)
}

// append adds an order to the tail of the level, preserving FIFO.
func (l *PriceLevel) append(o *common.Order) {
	l.Orders = append(l.Orders, o)
}

// dropFront removes the first n orders from the level's queue, used once
// they have been fully consumed by matching.
func (l *PriceLevel) dropFront(n int) {
	if n <= 0 {
		return
	}
	l.Orders = l.Orders[n:]
}

// empty reports whether the level carries no resting orders.
func (l *PriceLevel) empty() bool {
	return len(l.Orders) == 0
}
