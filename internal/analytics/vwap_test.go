package analytics_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"matchcore/internal/analytics"
	"matchcore/internal/common"
)

func identity(tick int64) float64 { return float64(tick) }

func TestTape_VWAP(t *testing.T) {
	tape := analytics.NewTape()
	assert.Equal(t, float64(0), tape.VWAP())

	tape.Record([]common.Trade{
		{Price: 100, Quantity: decimal.NewFromInt(10)},
		{Price: 110, Quantity: decimal.NewFromInt(30)},
	}, identity)

	// (100*10 + 110*30) / 40 = 107.5
	assert.InDelta(t, 107.5, tape.VWAP(), 0.0001)
}

func TestTape_VolumeStdDev_RequiresTwoSamples(t *testing.T) {
	tape := analytics.NewTape()
	tape.Record([]common.Trade{{Price: 100, Quantity: decimal.NewFromInt(10)}}, identity)
	assert.Equal(t, float64(0), tape.VolumeStdDev())
}
