// Package book implements the per-symbol order book: the sorted price-level
// maps, the FIFO queues within them, the resting-order id index, and the
// best-price/volume summary (spec §3, §4.3). It holds no matching logic —
// that lives in internal/engine, which walks a *OrderBook under its lock.
package book

import (
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"matchcore/internal/common"
)

// Levels is an ordered map from tick key to PriceLevel, kept sorted by the
// comparator it was constructed with. Using an intrinsically ordered
// container (rather than a hash map sorted per-match) gives O(log L) level
// access and O(log L) best-price reads with no per-match sort, per the
// ordered-price-level-map design note.
type Levels = btree.BTreeG[*PriceLevel]

// OrderBook holds one symbol's resting liquidity and summary state. All
// mutation goes through Lock/Unlock (taken by internal/engine for the
// duration of a single Submit/Cancel) so that a submit advances the book
// as one serialized logical step (spec §5).
type OrderBook struct {
	mu sync.Mutex

	Symbol string

	bids *Levels // sorted highest tick first
	asks *Levels // sorted lowest tick first

	orders map[uint64]*common.Order

	hasLastPrice bool
	lastPrice    int64
	totalVolume  decimal.Decimal
	nextTradeID  uint64
}

// New builds an empty order book for symbol.
func New(symbol string) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Tick > b.Tick // descending: best bid (highest) sorts first
	})
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Tick < b.Tick // ascending: best ask (lowest) sorts first
	})
	return &OrderBook{
		Symbol:      symbol,
		bids:        bids,
		asks:        asks,
		orders:      make(map[uint64]*common.Order),
		totalVolume: decimal.Zero,
		nextTradeID: 1,
	}
}

// Lock and Unlock serialize a single submit/cancel step against this book.
// Every other OrderBook method assumes the caller already holds the lock,
// except the read-only snapshot methods (Depth, Spread, Stats, BestBid,
// BestAsk), which take it themselves.
func (b *OrderBook) Lock()   { b.mu.Lock() }
func (b *OrderBook) Unlock() { b.mu.Unlock() }

func (b *OrderBook) levelsFor(side common.Side) *Levels {
	if side == common.Buy {
		return b.bids
	}
	return b.asks
}

// oppositeLevels returns the levels an aggressor on side walks when
// matching: a Buy aggressor walks asks, a Sell aggressor walks bids.
func (b *OrderBook) oppositeLevels(side common.Side) *Levels {
	if side == common.Buy {
		return b.asks
	}
	return b.bids
}

// BestOpposite returns the best (first-to-match) level on the side
// opposite to the given aggressor side, without removing it.
func (b *OrderBook) BestOpposite(side common.Side) (*PriceLevel, bool) {
	return b.oppositeLevels(side).Min()
}

// GetOrCreateLevel returns the resting-side level at tick, creating and
// inserting an empty one if it does not already exist.
func (b *OrderBook) GetOrCreateLevel(side common.Side, tick int64) *PriceLevel {
	levels := b.levelsFor(side)
	if lvl, ok := levels.Get(&PriceLevel{Tick: tick}); ok {
		return lvl
	}
	lvl := &PriceLevel{Tick: tick}
	levels.Set(lvl)
	return lvl
}

// DropFilled removes the first n orders of level (already fully consumed)
// and, if that empties the level, removes it from its side's map — the
// level-cleanup rule of spec §4.2.
func (b *OrderBook) DropFilled(side common.Side, level *PriceLevel, n int) {
	level.dropFront(n)
	if level.empty() {
		b.levelsFor(side).Delete(level)
	}
}

// RestOrder appends order to the tail of its own side's level at its limit
// tick, creating the level if necessary, and indexes it by id.
func (b *OrderBook) RestOrder(order *common.Order) {
	level := b.GetOrCreateLevel(order.Side, order.Price)
	level.append(order)
	b.orders[order.ID] = order
}

// Unindex removes an order from the id index without touching its level's
// queue; callers that have already spliced the order out of its level's
// slice use this to keep the index consistent.
func (b *OrderBook) Unindex(id uint64) {
	delete(b.orders, id)
}

// Get returns the live resting order for id, if any.
func (b *OrderBook) Get(id uint64) (*common.Order, bool) {
	o, ok := b.orders[id]
	return o, ok
}

// Remove deletes a resting order from both its level's queue and the id
// index — used by Cancel. Returns false if the id is not currently
// resting.
func (b *OrderBook) Remove(id uint64) bool {
	order, ok := b.orders[id]
	if !ok {
		return false
	}
	level := b.GetOrCreateLevel(order.Side, order.Price)
	for i, o := range level.Orders {
		if o.ID == id {
			level.Orders = append(level.Orders[:i], level.Orders[i+1:]...)
			break
		}
	}
	if level.empty() {
		b.levelsFor(order.Side).Delete(level)
	}
	delete(b.orders, id)
	return true
}

// RecordFill updates last-traded price and cumulative volume after a fill
// at tick for quantity qty.
func (b *OrderBook) RecordFill(tick int64, qty decimal.Decimal) {
	b.hasLastPrice = true
	b.lastPrice = tick
	b.totalVolume = b.totalVolume.Add(qty)
}

// AllocateTradeID returns the next monotonic trade id for this book.
func (b *OrderBook) AllocateTradeID() uint64 {
	id := b.nextTradeID
	b.nextTradeID++
	return id
}

// BestBid returns the highest tick with a non-empty bid level.
func (b *OrderBook) BestBid() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lvl, ok := b.bids.Min()
	if !ok {
		return 0, false
	}
	return lvl.Tick, true
}

// BestAsk returns the lowest tick with a non-empty ask level.
func (b *OrderBook) BestAsk() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lvl, ok := b.asks.Min()
	if !ok {
		return 0, false
	}
	return lvl.Tick, true
}

// LevelView is one aggregated row of a depth snapshot.
type LevelView struct {
	Tick       int64
	TotalQty   decimal.Decimal
	OrderCount int
}

// Depth returns up to n price levels per side, best price first, each
// aggregated by total resting quantity and order count (spec §4.3/§6).
func (b *OrderBook) Depth(n int) (bids, asks []LevelView) {
	b.mu.Lock()
	defer b.mu.Unlock()

	collect := func(levels *Levels) []LevelView {
		var out []LevelView
		levels.Scan(func(lvl *PriceLevel) bool {
			out = append(out, LevelView{
				Tick:       lvl.Tick,
				TotalQty:   lvl.TotalQuantity(),
				OrderCount: lvl.OrderCount(),
			})
			return len(out) < n
		})
		return out
	}
	return collect(b.bids), collect(b.asks)
}

// Stats returns the last traded tick (if any) and cumulative filled
// volume.
func (b *OrderBook) Stats() (lastPrice int64, hasLastPrice bool, totalVolume decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastPrice, b.hasLastPrice, b.totalVolume
}

// Spread returns best_ask - best_bid when both are set, else 0 (spec
// §4.3/glossary).
func (b *OrderBook) Spread() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	bidLvl, bidOk := b.bids.Min()
	askLvl, askOk := b.asks.Min()
	if !bidOk || !askOk {
		return 0
	}
	return askLvl.Tick - bidLvl.Tick
}
