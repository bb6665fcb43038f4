package regime

import (
	"context"
	"fmt"
	"math"

	"github.com/ducminhle1904/position-risk-engine/internal/exchange"
	"github.com/ducminhle1904/position-risk-engine/internal/indicators/base"
	"github.com/ducminhle1904/position-risk-engine/internal/indicators/trend"
	"github.com/ducminhle1904/position-risk-engine/internal/logger"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// Config holds the thresholds used to label a candle series
type Config struct {
	FastEMA int `json:"fast_ema"`
	SlowEMA int `json:"slow_ema"`

	ADXPeriod         int     `json:"adx_period"`
	ADXTrendThreshold float64 `json:"adx_trend_threshold"`

	// EMADistanceThreshold is |fast-slow|/slow required to confirm a trend
	EMADistanceThreshold float64 `json:"ema_distance_threshold"`

	ATRPeriod int `json:"atr_period"`

	// Normalized ATR (ATR / close) bounds
	VolatileATR float64 `json:"volatile_atr"`
	QuietATR    float64 `json:"quiet_atr"`
}

func DefaultConfig() Config {
	return Config{
		FastEMA:              20,
		SlowEMA:              50,
		ADXPeriod:            14,
		ADXTrendThreshold:    20,
		EMADistanceThreshold: 0.005,
		ATRPeriod:            base.DefaultATRPeriod,
		VolatileATR:          0.03,
		QuietATR:             0.005,
	}
}

// Reading is one classification with the figures behind it
type Reading struct {
	Regime        types.MarketRegime `json:"regime"`
	ADX           float64            `json:"adx"`
	EMADistance   float64            `json:"ema_distance"`
	NormalizedATR float64            `json:"normalized_atr"`
}

// Classifier labels candle series with a MarketRegime
type Classifier struct {
	cfg Config
	log *logger.Logger
}

func NewClassifier(cfg Config, log *logger.Logger) *Classifier {
	def := DefaultConfig()
	if cfg.FastEMA <= 0 {
		cfg.FastEMA = def.FastEMA
	}
	if cfg.SlowEMA <= cfg.FastEMA {
		cfg.SlowEMA = max(def.SlowEMA, cfg.FastEMA+1)
	}
	if cfg.ADXPeriod <= 0 {
		cfg.ADXPeriod = def.ADXPeriod
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = def.ATRPeriod
	}
	if cfg.ADXTrendThreshold <= 0 {
		cfg.ADXTrendThreshold = def.ADXTrendThreshold
	}
	if cfg.EMADistanceThreshold <= 0 {
		cfg.EMADistanceThreshold = def.EMADistanceThreshold
	}
	if cfg.VolatileATR <= 0 {
		cfg.VolatileATR = def.VolatileATR
	}
	if cfg.QuietATR <= 0 || cfg.QuietATR >= cfg.VolatileATR {
		cfg.QuietATR = min(def.QuietATR, cfg.VolatileATR/2)
	}
	return &Classifier{
		cfg: cfg,
		log: logger.OrNop(log).With("component", "regime"),
	}
}

// RequiredCandles is the shortest series Classify accepts
func (c *Classifier) RequiredCandles() int {
	return max(c.cfg.SlowEMA, trend.NewADX(c.cfg.ADXPeriod).GetRequiredPeriods(), c.cfg.ATRPeriod+1)
}

// Classify labels candles, oldest first. Volatility is checked before trend:
// a market moving more than VolatileATR per bar is volatile even when it trends.
func (c *Classifier) Classify(candles []types.OHLCV) (Reading, error) {
	if len(candles) < c.RequiredCandles() {
		return Reading{}, fmt.Errorf("need %d candles to classify regime, got %d: %w",
			c.RequiredCandles(), len(candles), trend.ErrInsufficientData)
	}

	adx, err := trend.NewADX(c.cfg.ADXPeriod).Calculate(candles)
	if err != nil {
		return Reading{}, err
	}
	fast, err := trend.NewEMA(c.cfg.FastEMA).Calculate(candles)
	if err != nil {
		return Reading{}, err
	}
	slow, err := trend.NewEMA(c.cfg.SlowEMA).Calculate(candles)
	if err != nil {
		return Reading{}, err
	}

	r := Reading{
		ADX:           adx,
		NormalizedATR: base.NormalizedVolatility(candles, c.cfg.ATRPeriod),
	}
	if slow > 0 {
		r.EMADistance = (fast - slow) / slow
	}

	switch {
	case r.NormalizedATR >= c.cfg.VolatileATR:
		r.Regime = types.RegimeVolatile
	case r.ADX > c.cfg.ADXTrendThreshold && math.Abs(r.EMADistance) > c.cfg.EMADistanceThreshold:
		r.Regime = types.RegimeTrending
	case r.NormalizedATR <= c.cfg.QuietATR:
		r.Regime = types.RegimeQuiet
	default:
		r.Regime = types.RegimeRanging
	}
	return r, nil
}

// Detect fetches enough candles for symbol/timeframe and classifies them
func (c *Classifier) Detect(ctx context.Context, provider exchange.CandleProvider, symbol, timeframe string) (Reading, error) {
	candles, err := provider.GetCandles(ctx, symbol, timeframe, c.RequiredCandles()*2)
	if err != nil {
		return Reading{}, fmt.Errorf("failed to fetch candles for %s %s: %w", symbol, timeframe, err)
	}

	r, err := c.Classify(candles)
	if err != nil {
		return Reading{}, err
	}
	c.log.Info("%s %s regime %s (adx=%.1f ema_distance=%.4f natr=%.4f)",
		symbol, timeframe, r.Regime, r.ADX, r.EMADistance, r.NormalizedATR)
	return r, nil
}
