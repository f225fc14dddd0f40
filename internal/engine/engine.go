// Package engine implements the matching algorithm of spec §4.2: it is a
// stateless set of functions that walk one *book.OrderBook at a time,
// appending to a *book.OrderBook under its own lock so the whole submit
// runs as a single serialized step (spec §5). The engine itself cannot
// fail — every input it receives has already passed registry validation
// (spec §7) — so Submit returns no error, and Cancel returns one only when
// the order is no longer resting (for instance a cancel racing a fill).
package engine

import (
	"github.com/shopspring/decimal"

	"matchcore/internal/book"
	"matchcore/internal/clock"
	"matchcore/internal/common"
)

// Submit runs the matching algorithm for order against ob and returns the
// trades it produced, in emission order. order.ID, order.Symbol and
// order.Price (already tick-converted) must be set by the caller; order.
// Timestamp is stamped here from clk.
func Submit(ob *book.OrderBook, order common.Order, clk clock.Clock) []common.Trade {
	ob.Lock()
	defer ob.Unlock()

	order.Timestamp = clk.NowMillis()

	switch order.Type {
	case common.MarketOrder:
		return matchMarket(ob, order, clk)
	default:
		return matchLimit(ob, order, clk)
	}
}

// Cancel removes a resting order from ob as a single serialized step.
// Returns ErrOrderNotFound if id is not currently resting (already filled
// or already cancelled).
func Cancel(ob *book.OrderBook, id uint64) error {
	ob.Lock()
	defer ob.Unlock()

	if !ob.Remove(id) {
		return common.ErrOrderNotFound
	}
	return nil
}

// emit records one trade: it allocates the trade id, stamps the timestamp,
// and updates the book's last-price/volume summary. The resting order R
// supplies the trade price — the aggressor never improves the maker (spec
// invariant 6).
func emit(ob *book.OrderBook, aggressor, resting *common.Order, qty decimal.Decimal, clk clock.Clock) common.Trade {
	buyID, sellID := aggressor.ID, resting.ID
	if aggressor.Side == common.Sell {
		buyID, sellID = resting.ID, aggressor.ID
	}

	trade := common.Trade{
		ID:          ob.AllocateTradeID(),
		Symbol:      aggressor.Symbol,
		BuyOrderID:  buyID,
		SellOrderID: sellID,
		Price:       resting.Price,
		Quantity:    qty,
		Timestamp:   clk.NowMillis(),
	}
	ob.RecordFill(resting.Price, qty)
	return trade
}

// crosses reports whether a resting level at levelTick still crosses with
// an aggressor on side limited to limitTick. Limit orders stop walking as
// soon as the level is strictly worse than the limit; market orders have
// no limit and always cross (handled by callers never invoking this for
// market orders).
func crosses(side common.Side, limitTick, levelTick int64) bool {
	if side == common.Buy {
		return levelTick <= limitTick
	}
	return levelTick >= limitTick
}
