package base

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// flatCandles builds n candles around price with a constant high-low range
func flatCandles(n int, price, rng float64) []types.OHLCV {
	out := make([]types.OHLCV, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = types.OHLCV{
			Open:      price,
			High:      price + rng/2,
			Low:       price - rng/2,
			Close:     price,
			Volume:    1000,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func TestTrueRange(t *testing.T) {
	tests := []struct {
		name      string
		candle    types.OHLCV
		prevClose float64
		expected  float64
	}{
		{"high-low dominates", types.OHLCV{High: 110, Low: 100}, 105, 10},
		{"gap up", types.OHLCV{High: 120, Low: 115}, 100, 20},
		{"gap down", types.OHLCV{High: 90, Low: 85}, 100, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, TrueRange(tt.candle, tt.prevClose), 1e-9)
		})
	}
}

func TestATR_InsufficientData(t *testing.T) {
	atr := NewATR(14)
	_, err := atr.Calculate(flatCandles(14, 100, 2))
	require.ErrorIs(t, err, ErrInsufficientData)
	assert.Equal(t, 15, atr.GetRequiredPeriods())
}

func TestATR_SimpleAverageOfLastPeriod(t *testing.T) {
	data := flatCandles(20, 100, 2)
	// widen the oldest candles; they fall outside the window
	for i := 0; i < 5; i++ {
		data[i].High = 150
		data[i].Low = 50
	}

	atr := NewATR(14)
	value, err := atr.Calculate(data)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, value, 1e-9)
	assert.Equal(t, value, atr.GetLastValue())
}

func TestNewATR_DefaultPeriod(t *testing.T) {
	assert.Equal(t, DefaultATRPeriod, NewATR(0).GetPeriod())
}

func TestNormalizedVolatility(t *testing.T) {
	t.Run("atr over last close", func(t *testing.T) {
		vol := NormalizedVolatility(flatCandles(15, 100, 4), 14)
		assert.InDelta(t, 0.04, vol, 1e-9)
	})

	t.Run("too few candles", func(t *testing.T) {
		assert.Equal(t, DefaultVolatility, NormalizedVolatility(flatCandles(10, 100, 4), 14))
	})

	t.Run("non-positive last close", func(t *testing.T) {
		data := flatCandles(15, 100, 4)
		data[len(data)-1].Close = 0
		assert.Equal(t, DefaultVolatility, NormalizedVolatility(data, 14))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, DefaultVolatility, NormalizedVolatility(nil, 14))
	})
}
