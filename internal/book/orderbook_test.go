package book_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/book"
	"matchcore/internal/common"
)

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestRestOrder_CreatesLevelAndIndexes(t *testing.T) {
	ob := book.New("X")
	ob.Lock()
	ob.RestOrder(&common.Order{ID: 1, Symbol: "X", Side: common.Buy, Price: 100, Quantity: qty(5)})
	ob.Unlock()

	bestBid, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(100), bestBid)

	o, ok := ob.Get(1)
	require.True(t, ok)
	assert.True(t, qty(5).Equal(o.Quantity))
}

func TestRestOrder_AppendsFIFOAtSameTick(t *testing.T) {
	ob := book.New("X")
	ob.Lock()
	ob.RestOrder(&common.Order{ID: 1, Symbol: "X", Side: common.Sell, Price: 100, Quantity: qty(5)})
	ob.RestOrder(&common.Order{ID: 2, Symbol: "X", Side: common.Sell, Price: 100, Quantity: qty(3)})
	ob.Unlock()

	_, asks := ob.Depth(10)
	require.Len(t, asks, 1)
	assert.Equal(t, 2, asks[0].OrderCount)
	assert.True(t, qty(8).Equal(asks[0].TotalQty))
}

func TestRemove_DeletesEmptiedLevel(t *testing.T) {
	ob := book.New("X")
	ob.Lock()
	ob.RestOrder(&common.Order{ID: 1, Symbol: "X", Side: common.Buy, Price: 99, Quantity: qty(5)})
	ob.Unlock()

	ob.Lock()
	ok := ob.Remove(1)
	ob.Unlock()
	require.True(t, ok)

	bids, _ := ob.Depth(10)
	assert.Empty(t, bids)
	_, ok = ob.Get(1)
	assert.False(t, ok)
}

func TestSpread_ZeroUnlessBothSidesSet(t *testing.T) {
	ob := book.New("X")
	assert.Equal(t, int64(0), ob.Spread())

	ob.Lock()
	ob.RestOrder(&common.Order{ID: 1, Symbol: "X", Side: common.Buy, Price: 99, Quantity: qty(5)})
	ob.Unlock()
	assert.Equal(t, int64(0), ob.Spread())

	ob.Lock()
	ob.RestOrder(&common.Order{ID: 2, Symbol: "X", Side: common.Sell, Price: 102, Quantity: qty(5)})
	ob.Unlock()
	assert.Equal(t, int64(3), ob.Spread())
}

func TestDepth_BidsDescendingAsksAscending(t *testing.T) {
	ob := book.New("X")
	ob.Lock()
	ob.RestOrder(&common.Order{ID: 1, Symbol: "X", Side: common.Buy, Price: 98, Quantity: qty(1)})
	ob.RestOrder(&common.Order{ID: 2, Symbol: "X", Side: common.Buy, Price: 99, Quantity: qty(1)})
	ob.RestOrder(&common.Order{ID: 3, Symbol: "X", Side: common.Sell, Price: 102, Quantity: qty(1)})
	ob.RestOrder(&common.Order{ID: 4, Symbol: "X", Side: common.Sell, Price: 101, Quantity: qty(1)})
	ob.Unlock()

	bids, asks := ob.Depth(10)
	require.Len(t, bids, 2)
	assert.Equal(t, int64(99), bids[0].Tick)
	assert.Equal(t, int64(98), bids[1].Tick)

	require.Len(t, asks, 2)
	assert.Equal(t, int64(101), asks[0].Tick)
	assert.Equal(t, int64(102), asks[1].Tick)
}

func TestDepth_RespectsCap(t *testing.T) {
	ob := book.New("X")
	ob.Lock()
	for i, price := range []int64{90, 91, 92, 93} {
		ob.RestOrder(&common.Order{ID: uint64(i + 1), Symbol: "X", Side: common.Buy, Price: price, Quantity: qty(1)})
	}
	ob.Unlock()

	bids, _ := ob.Depth(2)
	assert.Len(t, bids, 2)
}
