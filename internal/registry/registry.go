// Package registry is the matching core's top-level entry point (spec
// §4.4, §6): it owns the set of per-symbol order books, allocates order
// ids, validates inbound orders before they ever reach a book, and
// aggregates the global counters an embedder polls via GetStats.
package registry

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"matchcore/internal/analytics"
	"matchcore/internal/book"
	"matchcore/internal/clock"
	"matchcore/internal/common"
	"matchcore/internal/engine"
	"matchcore/internal/tick"
)

// DefaultDepth is the depth cap get_depth uses when the caller asks for
// n <= 0 (spec §6, `get_depth(sym, n=20)`).
const DefaultDepth = 20

// Registry owns every order book, keyed by symbol, plus the counters and
// id allocators that are global across symbols. Distinct symbols' books
// may be operated on concurrently; adding a new symbol never blocks a
// submit in flight against another (spec §5).
type Registry struct {
	mu    sync.RWMutex
	books map[string]*book.OrderBook
	tapes map[string]*analytics.Tape

	codec tick.Codec
	clock clock.Clock

	nextOrderID     uint64
	processedOrders uint64
	totalTrades     uint64
}

// New builds an empty Registry using the default tick scale.
func New(clk clock.Clock) *Registry {
	return NewWithScale(clk, tick.DefaultScale)
}

// NewWithScale builds an empty Registry with an explicit tick scale.
func NewWithScale(clk clock.Clock, scale int64) *Registry {
	return &Registry{
		books:       make(map[string]*book.OrderBook),
		tapes:       make(map[string]*analytics.Tape),
		codec:       tick.NewCodec(scale),
		clock:       clk,
		nextOrderID: 1,
	}
}

// AddSymbol registers symbol if it isn't already known. Idempotent: a
// second call for the same symbol is a no-op (spec §6).
func (r *Registry) AddSymbol(symbol string) {
	r.mu.RLock()
	_, exists := r.books[symbol]
	r.mu.RUnlock()
	if exists {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.books[symbol]; !exists {
		r.books[symbol] = book.New(symbol)
		r.tapes[symbol] = analytics.NewTape()
	}
}

func (r *Registry) lookup(symbol string) (*book.OrderBook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ob, ok := r.books[symbol]
	if !ok {
		return nil, common.ErrUnknownSymbol
	}
	return ob, nil
}

// PlaceOrder validates and routes an incoming order to its symbol's book,
// returning every trade the matching step produced (spec §6). quantity and
// price are real-valued at this boundary; price is ignored for Market
// orders. order ids are allocated monotonically, independent of symbol.
func (r *Registry) PlaceOrder(symbol string, side common.Side, orderType common.OrderType, quantity, price float64, userID uint32) ([]common.Trade, error) {
	ob, err := r.lookup(symbol)
	if err != nil {
		return nil, err
	}

	qty, err := validateQuantity(quantity)
	if err != nil {
		return nil, err
	}

	var priceTick int64
	if orderType == common.LimitOrder {
		priceTick, err = r.codec.PriceToKey(price)
		if err != nil {
			// Overflow and malformed-price both surface as InvalidOrder at
			// this boundary (spec §4.4).
			return nil, common.ErrInvalidOrder
		}
	}

	order := common.Order{
		ID:       atomic.AddUint64(&r.nextOrderID, 1) - 1,
		Symbol:   symbol,
		Side:     side,
		Type:     orderType,
		Quantity: qty,
		Price:    priceTick,
		UserID:   userID,
	}

	trades := engine.Submit(ob, order, r.clock)

	atomic.AddUint64(&r.processedOrders, 1)
	atomic.AddUint64(&r.totalTrades, uint64(len(trades)))
	r.recordTape(symbol, trades)
	return trades, nil
}

// recordTape feeds newly emitted trades into symbol's VWAP/volume tape, if
// the symbol still has one registered (it always does once AddSymbol has
// run). This is the only production caller of internal/analytics: every
// successful PlaceOrder call updates the tape SymbolAnalytics reads.
func (r *Registry) recordTape(symbol string, trades []common.Trade) {
	if len(trades) == 0 {
		return
	}
	r.mu.RLock()
	tape, ok := r.tapes[symbol]
	r.mu.RUnlock()
	if !ok {
		return
	}
	tape.Record(trades, r.codec.KeyToPrice)
}

// SymbolAnalytics returns the volume-weighted average price and trade-size
// standard deviation accumulated for symbol so far. This is supplemental
// to spec §6's four core operations: a read-side consumer of the trade
// stream PlaceOrder already produces, not a replacement for GetStats.
func (r *Registry) SymbolAnalytics(symbol string) (vwap, volumeStdDev float64, err error) {
	r.mu.RLock()
	tape, ok := r.tapes[symbol]
	r.mu.RUnlock()
	if !ok {
		return 0, 0, common.ErrUnknownSymbol
	}
	return tape.VWAP(), tape.VolumeStdDev(), nil
}

// CancelOrder removes a resting order from its symbol's book.
func (r *Registry) CancelOrder(symbol string, orderID uint64) error {
	ob, err := r.lookup(symbol)
	if err != nil {
		return err
	}
	return engine.Cancel(ob, orderID)
}

// validateQuantity rejects NaN/Inf/non-positive input (spec §8's boundary
// cases) and otherwise preserves quantity exactly as a decimal.Decimal — a
// fractional-positive quantity (e.g. 0.5) is spec-valid and must survive
// admission intact (invariant 4: fill + residual + discard sums to the
// submitted quantity), so it is never floored or truncated to an integer.
func validateQuantity(quantity float64) (decimal.Decimal, error) {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity <= 0 {
		return decimal.Zero, common.ErrInvalidOrder
	}
	return decimal.NewFromFloat(quantity), nil
}

// DepthLevel is one aggregated row of a get_depth snapshot, price and
// quantity both expressed in real (non-tick, non-decimal) units — this is
// a display-side view, same rounding tradeoff as Price already makes.
type DepthLevel struct {
	Price      float64
	TotalQty   float64
	OrderCount int
}

// DepthView is the result of GetDepth (spec §6).
type DepthView struct {
	Symbol       string
	Bids         []DepthLevel
	Asks         []DepthLevel
	LastPrice    float64
	HasLastPrice bool
	Spread       float64
	TotalVolume  float64
}

// GetDepth returns the top n price levels on each side, aggregated by
// total quantity and order count, plus last price / spread / total
// volume (spec §6). n <= 0 uses DefaultDepth.
func (r *Registry) GetDepth(symbol string, n int) (DepthView, error) {
	ob, err := r.lookup(symbol)
	if err != nil {
		return DepthView{}, err
	}
	if n <= 0 {
		n = DefaultDepth
	}

	bidLevels, askLevels := ob.Depth(n)
	lastTick, hasLast, totalVolume := ob.Stats()
	spreadTick := ob.Spread()

	view := DepthView{
		Symbol:       symbol,
		Bids:         make([]DepthLevel, len(bidLevels)),
		Asks:         make([]DepthLevel, len(askLevels)),
		HasLastPrice: hasLast,
		Spread:       r.codec.KeyToPrice(spreadTick),
		TotalVolume:  totalVolume.InexactFloat64(),
	}
	if hasLast {
		view.LastPrice = r.codec.KeyToPrice(lastTick)
	}
	for i, lvl := range bidLevels {
		view.Bids[i] = DepthLevel{Price: r.codec.KeyToPrice(lvl.Tick), TotalQty: lvl.TotalQty.InexactFloat64(), OrderCount: lvl.OrderCount}
	}
	for i, lvl := range askLevels {
		view.Asks[i] = DepthLevel{Price: r.codec.KeyToPrice(lvl.Tick), TotalQty: lvl.TotalQty.InexactFloat64(), OrderCount: lvl.OrderCount}
	}
	return view, nil
}

// StatsView is the result of GetStats (spec §6).
type StatsView struct {
	ProcessedOrders uint64
	TotalTrades     uint64
	ActiveSymbols   int
	Timestamp       int64
}

// GetStats returns the registry-wide counters.
func (r *Registry) GetStats() StatsView {
	r.mu.RLock()
	activeSymbols := len(r.books)
	r.mu.RUnlock()

	return StatsView{
		ProcessedOrders: atomic.LoadUint64(&r.processedOrders),
		TotalTrades:     atomic.LoadUint64(&r.totalTrades),
		ActiveSymbols:   activeSymbols,
		Timestamp:       r.clock.NowMillis(),
	}
}
