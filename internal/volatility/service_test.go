package volatility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/position-risk-engine/internal/cache"
	"github.com/ducminhle1904/position-risk-engine/internal/indicators/base"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

type stubCandles struct {
	candles []types.OHLCV
	err     error
	calls   int
}

func (s *stubCandles) GetCandles(_ context.Context, _, _ string, _ int) ([]types.OHLCV, error) {
	s.calls++
	return s.candles, s.err
}

func series(n int, price, rng float64) []types.OHLCV {
	out := make([]types.OHLCV, n)
	for i := range out {
		out[i] = types.OHLCV{Open: price, High: price + rng/2, Low: price - rng/2, Close: price}
	}
	return out
}

func TestService_DefaultsOnMiss(t *testing.T) {
	svc := NewService(nil, nil, nil)

	assert.Equal(t, base.DefaultVolatility, svc.Volatility("BTCUSDT", "1h"))
	_, ok := svc.ATR("BTCUSDT", "1h", 0)
	assert.False(t, ok)
}

func TestService_Refresh(t *testing.T) {
	provider := &stubCandles{candles: series(30, 200, 6)}
	svc := NewService(provider, nil, nil)

	require.NoError(t, svc.Refresh(context.Background(), "ETHUSDT", "4h"))
	assert.Equal(t, 1, provider.calls)

	assert.InDelta(t, 0.03, svc.Volatility("ETHUSDT", "4h"), 1e-9)

	atr, ok := svc.ATR("ETHUSDT", "4h", 14)
	require.True(t, ok)
	assert.InDelta(t, 6.0, atr, 1e-9)

	// a different period was never computed
	_, ok = svc.ATR("ETHUSDT", "4h", 21)
	assert.False(t, ok)
}

func TestService_RefreshShortHistory(t *testing.T) {
	provider := &stubCandles{candles: series(5, 100, 2)}
	svc := NewService(provider, nil, nil)

	require.NoError(t, svc.Refresh(context.Background(), "SOLUSDT", "1h"))
	assert.Equal(t, base.DefaultVolatility, svc.Volatility("SOLUSDT", "1h"))
	_, ok := svc.ATR("SOLUSDT", "1h", 0)
	assert.False(t, ok)
}

func TestService_RefreshError(t *testing.T) {
	provider := &stubCandles{err: errors.New("boom")}
	svc := NewService(provider, nil, nil)

	err := svc.Refresh(context.Background(), "BTCUSDT", "1h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestService_Freshness(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mc := cache.NewMemoryCache().WithClock(func() time.Time { return now })
	svc := NewService(nil, mc, nil)

	svc.Observe("BTCUSDT", "1h", series(15, 100, 4))
	assert.InDelta(t, 0.04, svc.Volatility("BTCUSDT", "1h"), 1e-9)

	now = now.Add(DefaultTTL)
	assert.Equal(t, base.DefaultVolatility, svc.Volatility("BTCUSDT", "1h"))
}
