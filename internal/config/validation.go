package config

import (
	"fmt"

	rerrors "github.com/ducminhle1904/position-risk-engine/internal/errors"
)

const (
	MaxPercent = 100.0
)

// Validate checks every invariant of the configuration and returns the first
// violation as a VALIDATION error.
func (c *RiskConfiguration) Validate() error {
	if c == nil {
		return invalid("configuration is nil")
	}

	if c.MinRiskPercentage <= 0 {
		return invalid("min_risk_percentage must be positive, got %.4f", c.MinRiskPercentage)
	}
	if c.MinRiskPercentage > c.BaseRiskPercentage || c.BaseRiskPercentage > c.MaxRiskPercentage {
		return invalid("risk percentages must satisfy min <= base <= max, got %.4f / %.4f / %.4f",
			c.MinRiskPercentage, c.BaseRiskPercentage, c.MaxRiskPercentage)
	}
	if c.MaxRiskPercentage > MaxPercent {
		return invalid("max_risk_percentage must be <= %.0f, got %.4f", MaxPercent, c.MaxRiskPercentage)
	}

	if err := c.VolatilityAdjustment.validate(); err != nil {
		return err
	}
	if err := c.DrawdownProtection.validate(); err != nil {
		return err
	}

	if c.PositionLimits.MaxPositions < 0 || c.PositionLimits.MaxPositionsPerDirection < 0 {
		return invalid("position limits must be non-negative")
	}
	if c.PositionLimits.PositionCorrelationThreshold < 0 || c.PositionLimits.PositionCorrelationThreshold > 1 {
		return invalid("position_correlation_threshold must be within [0, 1], got %.4f",
			c.PositionLimits.PositionCorrelationThreshold)
	}

	if !c.CapitalAllocation.Method.Valid() {
		return invalid("unknown capital allocation method %q", c.CapitalAllocation.Method)
	}

	lr := c.LiquidityRequirements
	if lr.Min24hVolume < 0 || lr.MinOrderbookDepth < 0 || lr.MaxSlippagePercent < 0 {
		return invalid("liquidity requirements must be non-negative")
	}

	if c.SmallAccountSettings != nil {
		if err := c.SmallAccountSettings.validate(); err != nil {
			return err
		}
	}

	for symbol, s := range c.Symbols {
		if s.StepSize <= 0 {
			return invalid("symbol %s: step_size must be positive, got %g", symbol, s.StepSize)
		}
		if s.MinNotional < 0 {
			return invalid("symbol %s: min_notional must be non-negative, got %g", symbol, s.MinNotional)
		}
	}

	return nil
}

func (v VolatilityAdjustmentConfig) validate() error {
	if v.LowVolatilityThreshold < 0 || v.LowVolatilityThreshold >= v.HighVolatilityThreshold {
		return invalid("volatility thresholds must satisfy 0 <= low < high, got %.4f / %.4f",
			v.LowVolatilityThreshold, v.HighVolatilityThreshold)
	}
	if v.HighVolatilityMultiplier <= 0 || v.LowVolatilityMultiplier <= 0 {
		return invalid("volatility multipliers must be positive")
	}
	return nil
}

func (d DrawdownProtectionConfig) validate() error {
	if len(d.DrawdownLevels) != len(d.RiskReductionPercents) {
		return invalid("drawdown_levels (%d) and risk_reduction_percents (%d) must have the same length",
			len(d.DrawdownLevels), len(d.RiskReductionPercents))
	}
	for i := range d.DrawdownLevels {
		if d.RiskReductionPercents[i] < 0 || d.RiskReductionPercents[i] > MaxPercent {
			return invalid("risk_reduction_percents[%d] must be within [0, 100], got %.4f", i, d.RiskReductionPercents[i])
		}
		if i == 0 {
			continue
		}
		if d.DrawdownLevels[i] <= d.DrawdownLevels[i-1] {
			return invalid("drawdown_levels must be strictly ascending at index %d", i)
		}
		if d.RiskReductionPercents[i] <= d.RiskReductionPercents[i-1] {
			return invalid("risk_reduction_percents must be strictly ascending at index %d", i)
		}
	}
	return nil
}

func (s *SmallAccountSettings) validate() error {
	if s.AccountSizeThreshold < 0 {
		return invalid("account_size_threshold must be non-negative")
	}
	if s.RiskPerTradeAdjustment <= 0 {
		return invalid("risk_per_trade_adjustment must be positive, got %.4f", s.RiskPerTradeAdjustment)
	}
	if s.BTCLeverageAdjustment <= 0 || s.ETHLeverageAdjustment <= 0 || s.AltcoinLeverageAdjustment <= 0 {
		return invalid("leverage adjustments must be positive")
	}
	for symbol, f := range s.LeverageAdjustments {
		if f <= 0 {
			return invalid("leverage adjustment for %s must be positive, got %.4f", symbol, f)
		}
	}
	if s.MinPositionValue < 0 {
		return invalid("min_position_value must be non-negative")
	}
	if s.MaxAccountPercent <= 0 || s.MaxAccountPercent > MaxPercent {
		return invalid("max_account_percent must be within (0, 100], got %.4f", s.MaxAccountPercent)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return rerrors.NewValidationError("config", "validate", fmt.Sprintf(format, args...))
}
