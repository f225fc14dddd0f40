package tick

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"matchcore/internal/common"
)

func TestPriceToKey_RoundTrip(t *testing.T) {
	c := NewCodec(DefaultScale)

	key, err := c.PriceToKey(100.25)
	assert.NoError(t, err)
	assert.Equal(t, int64(1002500), key)
	assert.Equal(t, 100.25, c.KeyToPrice(key))
}

func TestPriceToKey_FloorsToGrid(t *testing.T) {
	c := NewCodec(DefaultScale)

	key, err := c.PriceToKey(100.00014999)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000001), key)
}

func TestPriceToKey_RejectsNonPositive(t *testing.T) {
	c := NewCodec(DefaultScale)

	_, err := c.PriceToKey(0)
	assert.ErrorIs(t, err, common.ErrInvalidOrder)

	_, err = c.PriceToKey(-5)
	assert.ErrorIs(t, err, common.ErrInvalidOrder)
}

func TestPriceToKey_RejectsNonFinite(t *testing.T) {
	c := NewCodec(DefaultScale)

	_, err := c.PriceToKey(math.NaN())
	assert.ErrorIs(t, err, common.ErrInvalidOrder)

	_, err = c.PriceToKey(math.Inf(1))
	assert.ErrorIs(t, err, common.ErrInvalidOrder)
}

func TestDefaultScale_UsedWhenNonPositive(t *testing.T) {
	c := NewCodec(0)
	assert.Equal(t, int64(DefaultScale), c.scale)
}

func TestDecimalToKey_RoundTrip(t *testing.T) {
	c := NewCodec(DefaultScale)

	price := decimal.RequireFromString("50.5")
	key, err := c.DecimalToKey(price)
	assert.NoError(t, err)
	assert.Equal(t, int64(505000), key)
	assert.True(t, c.KeyToDecimal(key).Equal(price))
}

func TestDecimalToKey_RejectsNonPositive(t *testing.T) {
	c := NewCodec(DefaultScale)
	_, err := c.DecimalToKey(decimal.Zero)
	assert.ErrorIs(t, err, common.ErrInvalidOrder)
}
