package regime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/position-risk-engine/internal/indicators/trend"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// series builds n candles whose close is closeAt(i) and whose bar spans +-halfRange
func series(n int, halfRange float64, closeAt func(i int) float64) []types.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]types.OHLCV, n)
	for i := range out {
		c := closeAt(i)
		out[i] = types.OHLCV{
			Open:      c,
			High:      c + halfRange,
			Low:       c - halfRange,
			Close:     c,
			Volume:    1000,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func rising(i int) float64 { return 100 + float64(i) }

func alternating(step float64) func(int) float64 {
	return func(i int) float64 {
		if i%2 == 0 {
			return 100
		}
		return 100 + step
	}
}

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultConfig(), nil)

	tests := []struct {
		name    string
		candles []types.OHLCV
		want    types.MarketRegime
	}{
		{"steady uptrend", series(120, 0.5, rising), types.RegimeTrending},
		{"wide bars", series(120, 5, rising), types.RegimeVolatile},
		{"tight chop", series(120, 0.1, alternating(0.1)), types.RegimeQuiet},
		{"range", series(120, 0.5, alternating(1)), types.RegimeRanging},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := c.Classify(tt.candles)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Regime, "reading: %+v", r)
		})
	}
}

func TestClassify_TrendFigures(t *testing.T) {
	r, err := NewClassifier(DefaultConfig(), nil).Classify(series(120, 0.5, rising))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, r.ADX, 1e-9)
	assert.Greater(t, r.EMADistance, 0.005)
	assert.InDelta(t, 1.5/219, r.NormalizedATR, 1e-9)
}

func TestClassify_InsufficientData(t *testing.T) {
	c := NewClassifier(DefaultConfig(), nil)
	_, err := c.Classify(series(10, 0.5, rising))
	require.Error(t, err)
	assert.True(t, errors.Is(err, trend.ErrInsufficientData))
}

func TestNewClassifier_FillsDefaults(t *testing.T) {
	c := NewClassifier(Config{FastEMA: 60}, nil)
	assert.Equal(t, 61, c.cfg.SlowEMA)
	assert.Equal(t, 14, c.cfg.ADXPeriod)
	assert.Equal(t, 61, c.RequiredCandles())
}

type stubCandles struct {
	candles []types.OHLCV
	err     error
	limit   int
}

func (s *stubCandles) GetCandles(_ context.Context, _, _ string, limit int) ([]types.OHLCV, error) {
	s.limit = limit
	return s.candles, s.err
}

func TestDetect(t *testing.T) {
	c := NewClassifier(DefaultConfig(), nil)

	provider := &stubCandles{candles: series(120, 0.5, rising)}
	r, err := c.Detect(context.Background(), provider, "BTCUSDT", "1h")
	require.NoError(t, err)
	assert.Equal(t, types.RegimeTrending, r.Regime)
	assert.Equal(t, c.RequiredCandles()*2, provider.limit)

	failing := &stubCandles{err: errors.New("timeout")}
	_, err = c.Detect(context.Background(), failing, "BTCUSDT", "1h")
	assert.ErrorContains(t, err, "timeout")
}
