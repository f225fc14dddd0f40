package common

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Trade is immutable once emitted. Price is the maker's resting price
// (never the taker's limit) expressed as a tick key, per spec invariant 6.
// Quantity is exact decimal, matching Order.Quantity, so a chain of partial
// fills sums back to exactly the submitted quantity (invariant 4).
type Trade struct {
	ID          uint64
	Symbol      string
	BuyOrderID  uint64
	SellOrderID uint64
	Price       int64
	Quantity    decimal.Decimal
	Timestamp   int64
}

func (t Trade) String() string {
	return fmt.Sprintf(
		"Trade{id=%d symbol=%s buy=%d sell=%d price=%d qty=%s ts=%d}",
		t.ID, t.Symbol, t.BuyOrderID, t.SellOrderID, t.Price, t.Quantity, t.Timestamp,
	)
}
