package engine

import (
	"github.com/shopspring/decimal"

	"matchcore/internal/book"
	"matchcore/internal/clock"
	"matchcore/internal/common"
)

func oppositeSide(side common.Side) common.Side {
	if side == common.Buy {
		return common.Sell
	}
	return common.Buy
}

// consumeLevel walks level from its head, filling aggressor against each
// resting order in FIFO arrival order (spec invariant 7) until either the
// aggressor is filled or the level is exhausted. It returns the number of
// orders fully consumed (to be dropped from the level's queue by the
// caller) and the trades emitted.
func consumeLevel(ob *book.OrderBook, aggressor *common.Order, level *book.PriceLevel, clk clock.Clock) (consumed int, trades []common.Trade) {
	i := 0
	for i < len(level.Orders) && aggressor.Quantity.IsPositive() {
		resting := level.Orders[i]

		qty := decimal.Min(aggressor.Quantity, resting.Quantity)
		aggressor.Quantity = aggressor.Quantity.Sub(qty)
		resting.Quantity = resting.Quantity.Sub(qty)

		trades = append(trades, emit(ob, aggressor, resting, qty, clk))

		if resting.Quantity.IsZero() {
			ob.Unindex(resting.ID)
			i++
		}
	}
	return i, trades
}

// matchLimit implements spec §4.2's limit-order variant: walk the opposite
// side while it crosses the limit, then rest any residual quantity at the
// order's own tick.
func matchLimit(ob *book.OrderBook, order common.Order, clk clock.Clock) []common.Trade {
	var trades []common.Trade

	for order.Quantity.IsPositive() {
		level, ok := ob.BestOpposite(order.Side)
		if !ok || !crosses(order.Side, order.Price, level.Tick) {
			break
		}

		consumed, lvlTrades := consumeLevel(ob, &order, level, clk)
		trades = append(trades, lvlTrades...)
		if consumed > 0 {
			ob.DropFilled(oppositeSide(order.Side), level, consumed)
		}
	}

	if order.Quantity.IsPositive() {
		resting := order
		ob.RestOrder(&resting)
	}

	return trades
}

// matchMarket implements spec §4.2's market-order variant: walk the
// opposite side with no price constraint until the residual is 0 or the
// opposite side is empty. Any residual is discarded — a market order never
// rests and is never indexed (the source's open-question behaviour, kept
// deliberately per spec §9).
func matchMarket(ob *book.OrderBook, order common.Order, clk clock.Clock) []common.Trade {
	var trades []common.Trade

	for order.Quantity.IsPositive() {
		level, ok := ob.BestOpposite(order.Side)
		if !ok {
			break
		}

		consumed, lvlTrades := consumeLevel(ob, &order, level, clk)
		trades = append(trades, lvlTrades...)
		if consumed > 0 {
			ob.DropFilled(oppositeSide(order.Side), level, consumed)
		}
	}

	return trades
}
