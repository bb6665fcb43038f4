package volatility

import (
	"context"
	"fmt"
	"time"

	"github.com/ducminhle1904/position-risk-engine/internal/cache"
	"github.com/ducminhle1904/position-risk-engine/internal/exchange"
	"github.com/ducminhle1904/position-risk-engine/internal/indicators/base"
	"github.com/ducminhle1904/position-risk-engine/internal/logger"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

const (
	NamespaceVolatility = "volatility"
	NamespaceATR        = "atr"

	DefaultTTL = 15 * time.Minute
)

// Service keeps normalized volatility and ATR per symbol/timeframe in a
// shared cache. Reads never touch the network; Refresh does.
type Service struct {
	provider exchange.CandleProvider
	cache    cache.Cache
	ttl      time.Duration
	period   int
	log      *logger.Logger
}

// NewService creates a volatility service. A nil cache gets a private MemoryCache.
func NewService(provider exchange.CandleProvider, c cache.Cache, log *logger.Logger) *Service {
	if c == nil {
		c = cache.NewMemoryCache()
	}
	return &Service{
		provider: provider,
		cache:    c,
		ttl:      DefaultTTL,
		period:   base.DefaultATRPeriod,
		log:      logger.OrNop(log).With("component", "volatility"),
	}
}

// WithTTL overrides the freshness window
func (s *Service) WithTTL(ttl time.Duration) *Service {
	s.ttl = ttl
	return s
}

// WithPeriod overrides the ATR lookback
func (s *Service) WithPeriod(period int) *Service {
	if period > 0 {
		s.period = period
	}
	return s
}

// Period returns the configured ATR lookback
func (s *Service) Period() int {
	return s.period
}

func Key(symbol, timeframe string) string {
	return symbol + ":" + timeframe
}

func atrKey(symbol, timeframe string, period int) string {
	return fmt.Sprintf("%s:%s:%d", symbol, timeframe, period)
}

// Volatility returns the cached normalized volatility, or base.DefaultVolatility
// when nothing fresh is cached.
func (s *Service) Volatility(symbol, timeframe string) float64 {
	if v, ok := s.cache.Get(NamespaceVolatility, Key(symbol, timeframe)); ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return base.DefaultVolatility
}

// ATR returns the cached ATR. ok is false when no fresh value exists.
func (s *Service) ATR(symbol, timeframe string, period int) (float64, bool) {
	if period <= 0 {
		period = s.period
	}
	v, ok := s.cache.Get(NamespaceATR, atrKey(symbol, timeframe, period))
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// Refresh fetches candles and recomputes both cached figures. Insufficient
// history stores the default volatility and leaves ATR unset.
func (s *Service) Refresh(ctx context.Context, symbol, timeframe string) error {
	if s.provider == nil {
		return fmt.Errorf("no candle provider configured")
	}

	candles, err := s.provider.GetCandles(ctx, symbol, timeframe, s.period*3)
	if err != nil {
		return fmt.Errorf("failed to fetch candles for %s %s: %w", symbol, timeframe, err)
	}

	s.Observe(symbol, timeframe, candles)
	return nil
}

// Observe recomputes the cached figures from an already-fetched series
func (s *Service) Observe(symbol, timeframe string, candles []types.OHLCV) {
	vol := base.NormalizedVolatility(candles, s.period)
	s.cache.Set(NamespaceVolatility, Key(symbol, timeframe), vol, s.ttl)

	atr, err := base.NewATR(s.period).Calculate(candles)
	if err != nil {
		s.log.Warning("ATR unavailable for %s %s: %d candles, need %d", symbol, timeframe, len(candles), s.period+1)
		return
	}
	s.cache.Set(NamespaceATR, atrKey(symbol, timeframe, s.period), atr, s.ttl)
	s.log.Debug("refreshed %s %s volatility=%.5f atr=%.5f", symbol, timeframe, vol, atr)
}
