package registry_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/clock"
	"matchcore/internal/common"
	"matchcore/internal/registry"
)

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func newRegistry() *registry.Registry {
	return registry.New(clock.NewManual(1000))
}

func TestPlaceOrder_UnknownSymbol(t *testing.T) {
	r := newRegistry()
	_, err := r.PlaceOrder("X", common.Buy, common.LimitOrder, 1, 100, 1)
	assert.ErrorIs(t, err, common.ErrUnknownSymbol)
}

func TestAddSymbol_Idempotent(t *testing.T) {
	r := newRegistry()
	r.AddSymbol("X")
	r.AddSymbol("X")
	stats := r.GetStats()
	assert.Equal(t, 1, stats.ActiveSymbols)
}

// S6 — invalid input is rejected without mutating the book.
func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	r := newRegistry()
	r.AddSymbol("X")

	_, err := r.PlaceOrder("X", common.Buy, common.LimitOrder, 0, 100, 1)
	assert.ErrorIs(t, err, common.ErrInvalidOrder)

	depth, err := r.GetDepth("X", 10)
	require.NoError(t, err)
	assert.Empty(t, depth.Bids)
}

func TestPlaceOrder_InvalidLimitPrice(t *testing.T) {
	r := newRegistry()
	r.AddSymbol("X")

	_, err := r.PlaceOrder("X", common.Buy, common.LimitOrder, 5, 0, 1)
	assert.ErrorIs(t, err, common.ErrInvalidOrder)

	_, err = r.PlaceOrder("X", common.Buy, common.LimitOrder, 5, -10, 1)
	assert.ErrorIs(t, err, common.ErrInvalidOrder)
}

func TestPlaceOrder_MarketOrderIgnoresPrice(t *testing.T) {
	r := newRegistry()
	r.AddSymbol("X")

	_, err := r.PlaceOrder("X", common.Sell, common.LimitOrder, 3, 50, 1)
	require.NoError(t, err)

	trades, err := r.PlaceOrder("X", common.Buy, common.MarketOrder, 10, -999, 2)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, qty(3).Equal(trades[0].Quantity))
}

func TestPlaceOrder_EndToEnd(t *testing.T) {
	r := newRegistry()
	r.AddSymbol("X")

	_, err := r.PlaceOrder("X", common.Sell, common.LimitOrder, 10, 100.00, 1)
	require.NoError(t, err)

	trades, err := r.PlaceOrder("X", common.Buy, common.LimitOrder, 4, 101.00, 2)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, qty(4).Equal(trades[0].Quantity))

	depth, err := r.GetDepth("X", 20)
	require.NoError(t, err)
	require.Len(t, depth.Asks, 1)
	assert.InDelta(t, 100.00, depth.Asks[0].Price, 0.0001)
	assert.InDelta(t, 6, depth.Asks[0].TotalQty, 0.0001)
	assert.True(t, depth.HasLastPrice)
	assert.InDelta(t, 100.00, depth.LastPrice, 0.0001)
	assert.InDelta(t, 4, depth.TotalVolume, 0.0001)

	stats := r.GetStats()
	assert.Equal(t, uint64(2), stats.ProcessedOrders)
	assert.Equal(t, uint64(1), stats.TotalTrades)
}

func TestCancelOrder_RemovesResting(t *testing.T) {
	r := newRegistry()
	r.AddSymbol("X")

	_, err := r.PlaceOrder("X", common.Buy, common.LimitOrder, 5, 99, 1)
	require.NoError(t, err)

	require.NoError(t, r.CancelOrder("X", 1))
	assert.ErrorIs(t, r.CancelOrder("X", 1), common.ErrOrderNotFound)
}
