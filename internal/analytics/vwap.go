// Package analytics computes read-side statistics from the trade tape a
// registry emits. It never touches a book or the matching path; it only
// consumes the Trade slices PlaceOrder already returns. internal/registry
// feeds every symbol's Tape from PlaceOrder directly (see Registry.
// recordTape); SymbolAnalytics is the read side.
package analytics

import (
	"gonum.org/v1/gonum/stat"

	"matchcore/internal/common"
)

// Tape accumulates per-symbol trade history for VWAP and volume
// statistics. Registry keeps one per symbol and feeds it the trades of each
// PlaceOrder call; internal/book and internal/engine have no dependency on
// it.
type Tape struct {
	prices []float64
	sizes  []float64
}

// NewTape builds an empty tape.
func NewTape() *Tape {
	return &Tape{}
}

// Record appends trades to the tape, converting each trade's tick-key price
// to real price units with keyToPrice.
func (t *Tape) Record(trades []common.Trade, keyToPrice func(int64) float64) {
	for _, tr := range trades {
		t.prices = append(t.prices, keyToPrice(tr.Price))
		t.sizes = append(t.sizes, tr.Quantity.InexactFloat64())
	}
}

// VWAP returns the volume-weighted average price across every recorded
// trade, or 0 if none have been recorded.
func (t *Tape) VWAP() float64 {
	if len(t.prices) == 0 {
		return 0
	}
	return stat.Mean(t.prices, t.sizes)
}

// VolumeStdDev returns the standard deviation of individual trade sizes,
// a cheap signal for whether recent fills are unusually large.
func (t *Tape) VolumeStdDev() float64 {
	if len(t.sizes) < 2 {
		return 0
	}
	_, std := stat.MeanStdDev(t.sizes, nil)
	return std
}
