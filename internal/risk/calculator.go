package risk

import (
	"time"

	"github.com/ducminhle1904/position-risk-engine/internal/config"
	"github.com/ducminhle1904/position-risk-engine/internal/indicators/base"
	"github.com/ducminhle1904/position-risk-engine/internal/logger"
	"github.com/ducminhle1904/position-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// VolatilitySource returns normalized volatility for a symbol/timeframe
type VolatilitySource interface {
	Volatility(symbol, timeframe string) float64
}

// FixedVolatility returns the same value for every symbol
type FixedVolatility float64

func (f FixedVolatility) Volatility(string, string) float64 { return float64(f) }

// regimeMultipliers scale risk by market regime. Unknown regimes use 1.0.
var regimeMultipliers = map[types.MarketRegime]float64{
	types.RegimeTrending: 1.2,
	types.RegimeRanging:  0.8,
	types.RegimeVolatile: 0.6,
	types.RegimeQuiet:    1.0,
}

// RegimeMultiplier returns the risk multiplier for regime
func RegimeMultiplier(regime types.MarketRegime) float64 {
	if m, ok := regimeMultipliers[regime]; ok {
		return m
	}
	return 1.0
}

// Calculator computes the bounded risk percentage for a trade
type Calculator struct {
	cfg     config.Source
	vol     VolatilitySource
	history *History
	log     *logger.Logger
	now     func() time.Time
}

// NewCalculator creates a risk percentage calculator. A nil vol source
// always reports the default volatility.
func NewCalculator(cfg config.Source, vol VolatilitySource, history *History, log *logger.Logger) *Calculator {
	if vol == nil {
		vol = FixedVolatility(base.DefaultVolatility)
	}
	if history == nil {
		history = NewHistory(DefaultHistoryCapacity)
	}
	return &Calculator{
		cfg:     cfg,
		vol:     vol,
		history: history,
		log:     logger.OrNop(log).With("component", "risk_calculator"),
		now:     time.Now,
	}
}

// History returns the record buffer appended to by every calculation
func (c *Calculator) History() *History {
	return c.history
}

// CalculateRiskPercentage combines base risk with volatility, regime and
// drawdown adjustments and clamps the result to [min, max]. drawdown is the
// current drawdown in percent, nil when unknown. accountBalance is accepted
// for interface symmetry; the risk percentage does not depend on it.
func (c *Calculator) CalculateRiskPercentage(symbol, timeframe string, regime types.MarketRegime,
	accountBalance float64, drawdown *float64) float64 {

	cfg := c.cfg.Get()
	volatility := c.vol.Volatility(symbol, timeframe)

	risk := cfg.BaseRiskPercentage
	risk *= VolatilityMultiplier(cfg.VolatilityAdjustment, volatility)
	risk *= RegimeMultiplier(regime)
	if drawdown != nil {
		risk *= 1 - DrawdownReduction(cfg.DrawdownProtection, *drawdown)/100
	}

	final := clamp(risk, cfg.MinRiskPercentage, cfg.MaxRiskPercentage)
	if final != risk {
		c.log.Debug("%s risk %.4f%% clamped to %.4f%%", symbol, risk, final)
	}

	record := RiskAllocationRecord{
		Timestamp:    c.now(),
		Symbol:       symbol,
		Timeframe:    timeframe,
		MarketRegime: regime,
		Volatility:   volatility,
		BaseRisk:     cfg.BaseRiskPercentage,
		AdjustedRisk: final,
	}
	if drawdown != nil {
		dd := *drawdown
		record.Drawdown = &dd
	}
	c.history.Append(record)

	monitoring.RecordRiskPercentage(symbol, timeframe, volatility, final)
	return final
}

// VolatilityMultiplier maps volatility to a risk multiplier. Between the
// thresholds the multiplier is interpolated linearly from the low to the
// high multiplier.
func VolatilityMultiplier(v config.VolatilityAdjustmentConfig, volatility float64) float64 {
	if !v.Enabled {
		return 1.0
	}
	switch {
	case volatility >= v.HighVolatilityThreshold:
		return v.HighVolatilityMultiplier
	case volatility <= v.LowVolatilityThreshold:
		return v.LowVolatilityMultiplier
	}

	span := v.HighVolatilityThreshold - v.LowVolatilityThreshold
	if span <= 0 {
		return 1.0
	}
	t := (volatility - v.LowVolatilityThreshold) / span
	return v.LowVolatilityMultiplier + t*(v.HighVolatilityMultiplier-v.LowVolatilityMultiplier)
}

// DrawdownReduction returns the reduction percent of the highest tier not
// exceeding drawdown, or 0 below the first tier.
func DrawdownReduction(d config.DrawdownProtectionConfig, drawdown float64) float64 {
	if !d.Enabled {
		return 0
	}
	reduction := 0.0
	for i, level := range d.DrawdownLevels {
		if i >= len(d.RiskReductionPercents) || drawdown < level {
			break
		}
		reduction = d.RiskReductionPercents[i]
	}
	return reduction
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
