package bybit

import (
	"context"
	"errors"
	"testing"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/position-risk-engine/internal/safety"
)

func ok(result interface{}) *bybit_api.ServerResponse {
	return &bybit_api.ServerResponse{RetCode: 0, RetMsg: "OK", Result: result}
}

func TestParseKlines_OldestFirst(t *testing.T) {
	resp := ok(map[string]interface{}{
		"symbol":   "BTCUSDT",
		"category": "linear",
		"list": [][]string{
			{"1719842400000", "50100", "50300", "50000", "50200", "12.5", "627500"},
			{"1719838800000", "50000", "50150", "49900", "50100", "10", "500500"},
			{"bad"},
		},
	})

	candles, err := parseKlines(resp)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.True(t, candles[0].Timestamp.Before(candles[1].Timestamp))
	assert.Equal(t, 50000.0, candles[0].Open)
	assert.Equal(t, 50200.0, candles[1].Close)
	assert.Equal(t, 12.5, candles[1].Volume)
}

func TestParseKlines_APIError(t *testing.T) {
	_, err := parseKlines(&bybit_api.ServerResponse{RetCode: ErrCodeRateLimitExceeded, RetMsg: "too many visits"})
	require.Error(t, err)
	assert.True(t, IsRetryableError(err))

	_, err = parseKlines("not a response")
	assert.Error(t, err)
}

func TestParseOrderBook(t *testing.T) {
	resp := ok(map[string]interface{}{
		"s":  "ETHUSDT",
		"b":  [][]string{{"2999", "3"}, {"3000", "1.5"}, {"2998", "0"}},
		"a":  [][]string{{"3002", "2"}, {"3001", "4"}},
		"ts": 1719842400123,
		"u":  42,
	})

	book, err := parseOrderBook(resp)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", book.Symbol)
	require.Len(t, book.Bids, 2, "zero-quantity levels are dropped")
	assert.Equal(t, 3000.0, book.Bids[0].Price)
	assert.Equal(t, 3001.0, book.Asks[0].Price)
	assert.Equal(t, time.UnixMilli(1719842400123), book.Timestamp)
}

func TestParseTurnover(t *testing.T) {
	resp := ok(map[string]interface{}{
		"category": "linear",
		"list": []map[string]string{
			{"symbol": "BTCUSDT", "lastPrice": "50000", "turnover24h": "1234567.5", "volume24h": "24.7"},
		},
	})
	v, err := parseTurnover(resp, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1234567.5, v)

	_, err = parseTurnover(ok(map[string]interface{}{"list": []interface{}{}}), "BTCUSDT")
	assert.Error(t, err)
}

func TestParseInstrument_SymbolSpec(t *testing.T) {
	resp := ok(map[string]interface{}{
		"category": "linear",
		"list": []map[string]interface{}{
			{
				"symbol": "SOLUSDT",
				"lotSizeFilter": map[string]string{
					"qtyStep":          "0.1",
					"minOrderQty":      "0.1",
					"minNotionalValue": "5",
				},
			},
		},
	})

	info, err := parseInstrument(resp, "SOLUSDT")
	require.NoError(t, err)
	spec := info.SymbolSpec()
	assert.Equal(t, 0.1, spec.StepSize)
	assert.Equal(t, 5.0, spec.MinNotional)

	_, err = parseInstrument(resp, "DOGEUSDT")
	var bybitErr *BybitError
	require.True(t, errors.As(err, &bybitErr))
	assert.Equal(t, ErrCodeSymbolNotFound, bybitErr.Code)
}

func TestInstrumentInfo_SpotFallbacks(t *testing.T) {
	var info InstrumentInfo
	info.LotSizeFilter.BasePrecision = "0.0001"
	info.LotSizeFilter.MinOrderAmt = "10"

	spec := info.SymbolSpec()
	assert.Equal(t, 0.0001, spec.StepSize)
	assert.Equal(t, 10.0, spec.MinNotional)

	assert.Equal(t, 0.001, InstrumentInfo{}.SymbolSpec().StepSize)
}

func TestIntervalFor(t *testing.T) {
	iv, err := IntervalFor("4h")
	require.NoError(t, err)
	assert.Equal(t, Interval4h, iv)

	iv, err = IntervalFor("1D")
	require.NoError(t, err)
	assert.Equal(t, Interval1d, iv)

	_, err = IntervalFor("7m")
	assert.Error(t, err)
}

func TestWithRetry(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}

	calls := 0
	err := withRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return NewBybitError(ErrCodeRateLimitExceeded, "slow down")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = withRetry(context.Background(), cfg, func() error {
		calls++
		return NewBybitError(ErrCodeInvalidAPIKey, "bad key")
	})
	assert.True(t, IsAuthenticationError(err))
	assert.Equal(t, 1, calls, "non-retryable errors stop immediately")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = withRetry(ctx, cfg, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDelayCapped(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second, BackoffFactor: 2}
	assert.Equal(t, time.Second, backoffDelay(0, cfg))
	assert.Equal(t, 2*time.Second, backoffDelay(1, cfg))
	assert.Equal(t, 3*time.Second, backoffDelay(5, cfg))
}

func TestClientCall_OpensBreaker(t *testing.T) {
	c := NewClient(Config{}, nil)
	c.retry.MaxRetries = 0

	calls := 0
	failing := func() error {
		calls++
		return NewBybitError(ErrCodeInvalidAPIKey, "bad key")
	}
	for i := 0; i < 5; i++ {
		require.Error(t, c.call(context.Background(), failing))
	}
	assert.Equal(t, 5, calls)
	assert.Equal(t, safety.StateOpen, c.breaker.GetState())

	err := c.call(context.Background(), failing)
	assert.ErrorIs(t, err, safety.ErrCircuitOpen)
	assert.Equal(t, 5, calls, "open breaker skips the request")
}
