// Package tick implements the bijection between a decimal price and the
// integer tick key used for ordering, hashing, and storage throughout the
// matching core (spec §4.1). No comparison inside the engine or book ever
// operates on the real-valued form.
package tick

import (
	"math"

	"github.com/shopspring/decimal"

	"matchcore/internal/common"
)

// DefaultScale is the minimum tick: a price of 100.0001 and a price of
// 100.00014999 both quantize to the same key under the default scale.
const DefaultScale = 10000

// Codec converts between a decimal price and its tick key under a fixed
// scaling constant.
type Codec struct {
	scale int64
}

// NewCodec builds a Codec with the given scale. A non-positive scale falls
// back to DefaultScale.
func NewCodec(scale int64) Codec {
	if scale <= 0 {
		scale = DefaultScale
	}
	return Codec{scale: scale}
}

// PriceToKey converts a float64 price to its tick key. Returns
// ErrInvalidOrder for non-finite or non-positive input, and ErrOverflow if
// the scaled value does not fit in an int64.
func (c Codec) PriceToKey(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, common.ErrInvalidOrder
	}
	scaled := price * float64(c.scale)
	if scaled > math.MaxInt64 || scaled < math.MinInt64 {
		return 0, common.ErrOverflow
	}
	return int64(math.Floor(scaled)), nil
}

// KeyToPrice converts a tick key back to its decimal price.
func (c Codec) KeyToPrice(key int64) float64 {
	return float64(key) / float64(c.scale)
}

// DecimalToKey converts an exact decimal.Decimal price to its tick key,
// avoiding the float64 rounding PriceToKey incurs before the scale
// multiply. Venues handing the core exact decimal prices (rather than
// float64) should prefer this path.
func (c Codec) DecimalToKey(price decimal.Decimal) (int64, error) {
	if price.Sign() <= 0 {
		return 0, common.ErrInvalidOrder
	}
	scaled := price.Mul(decimal.NewFromInt(c.scale)).Floor()
	if !scaled.IsInteger() || scaled.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, common.ErrOverflow
	}
	return scaled.IntPart(), nil
}

// KeyToDecimal converts a tick key back to an exact decimal price.
func (c Codec) KeyToDecimal(key int64) decimal.Decimal {
	return decimal.NewFromInt(key).Div(decimal.NewFromInt(c.scale))
}
