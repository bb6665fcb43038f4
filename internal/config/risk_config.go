package config

// AllocationMethod selects how the capital allocator weights symbols
type AllocationMethod string

const (
	AllocationEqual           AllocationMethod = "equal"
	AllocationVolatilityBased AllocationMethod = "volatility_based"
	AllocationSignalStrength  AllocationMethod = "signal_strength"
	AllocationVolumeBased     AllocationMethod = "volume_based"
)

// Valid reports whether m is one of the supported methods
func (m AllocationMethod) Valid() bool {
	switch m {
	case AllocationEqual, AllocationVolatilityBased, AllocationSignalStrength, AllocationVolumeBased:
		return true
	}
	return false
}

// RiskConfiguration is the persisted risk configuration document.
// All percentages are expressed in percent (1.0 == 1%).
type RiskConfiguration struct {
	BaseRiskPercentage float64 `json:"base_risk_percentage" yaml:"base_risk_percentage"`
	MaxRiskPercentage  float64 `json:"max_risk_percentage" yaml:"max_risk_percentage"`
	MinRiskPercentage  float64 `json:"min_risk_percentage" yaml:"min_risk_percentage"`

	VolatilityAdjustment  VolatilityAdjustmentConfig  `json:"volatility_adjustment" yaml:"volatility_adjustment"`
	DrawdownProtection    DrawdownProtectionConfig    `json:"drawdown_protection" yaml:"drawdown_protection"`
	PositionLimits        PositionLimitsConfig        `json:"position_limits" yaml:"position_limits"`
	CapitalAllocation     CapitalAllocationConfig     `json:"capital_allocation" yaml:"capital_allocation"`
	LiquidityRequirements LiquidityRequirementsConfig `json:"liquidity_requirements" yaml:"liquidity_requirements"`

	SmallAccountSettings *SmallAccountSettings `json:"small_account_settings,omitempty" yaml:"small_account_settings,omitempty"`

	// Symbols overrides the built-in quantization table
	Symbols map[string]SymbolSettings `json:"symbols,omitempty" yaml:"symbols,omitempty"`
}

// VolatilityAdjustmentConfig scales risk by normalized volatility
type VolatilityAdjustmentConfig struct {
	Enabled                  bool    `json:"enabled" yaml:"enabled"`
	HighVolatilityThreshold  float64 `json:"high_volatility_threshold" yaml:"high_volatility_threshold"`
	LowVolatilityThreshold   float64 `json:"low_volatility_threshold" yaml:"low_volatility_threshold"`
	HighVolatilityMultiplier float64 `json:"high_volatility_multiplier" yaml:"high_volatility_multiplier"`
	LowVolatilityMultiplier  float64 `json:"low_volatility_multiplier" yaml:"low_volatility_multiplier"`
}

// DrawdownProtectionConfig pairs ascending drawdown tiers with risk reductions
type DrawdownProtectionConfig struct {
	Enabled               bool      `json:"enabled" yaml:"enabled"`
	DrawdownLevels        []float64 `json:"drawdown_levels" yaml:"drawdown_levels"`
	RiskReductionPercents []float64 `json:"risk_reduction_percents" yaml:"risk_reduction_percents"`
}

type PositionLimitsConfig struct {
	MaxPositions                 int     `json:"max_positions" yaml:"max_positions"`
	MaxPositionsPerDirection     int     `json:"max_positions_per_direction" yaml:"max_positions_per_direction"`
	PositionCorrelationThreshold float64 `json:"position_correlation_threshold" yaml:"position_correlation_threshold"`
}

type CapitalAllocationConfig struct {
	Method AllocationMethod `json:"method" yaml:"method"`
}

type LiquidityRequirementsConfig struct {
	Min24hVolume       float64 `json:"min_24h_volume" yaml:"min_24h_volume"`
	MinOrderbookDepth  float64 `json:"min_orderbook_depth" yaml:"min_orderbook_depth"`
	MaxSlippagePercent float64 `json:"max_slippage_percent" yaml:"max_slippage_percent"`
}

// SmallAccountSettings configures the sizing policy used below AccountSizeThreshold
type SmallAccountSettings struct {
	Enabled                   bool    `json:"enabled" yaml:"enabled"`
	AccountSizeThreshold      float64 `json:"account_size_threshold" yaml:"account_size_threshold"`
	RiskPerTradeAdjustment    float64 `json:"risk_per_trade_adjustment" yaml:"risk_per_trade_adjustment"`
	BTCLeverageAdjustment     float64 `json:"btc_leverage_adjustment" yaml:"btc_leverage_adjustment"`
	ETHLeverageAdjustment     float64 `json:"eth_leverage_adjustment" yaml:"eth_leverage_adjustment"`
	AltcoinLeverageAdjustment float64 `json:"altcoin_leverage_adjustment" yaml:"altcoin_leverage_adjustment"`
	MinPositionValue          float64 `json:"min_position_value" yaml:"min_position_value"`
	MaxAccountPercent         float64 `json:"max_account_percent" yaml:"max_account_percent"`

	// LeverageAdjustments overrides the BTC/ETH/altcoin factors per symbol
	LeverageAdjustments map[string]float64 `json:"leverage_adjustments,omitempty" yaml:"leverage_adjustments,omitempty"`
}

// SymbolSettings carries exchange quantization rules for one symbol
type SymbolSettings struct {
	StepSize    float64 `json:"step_size" yaml:"step_size"`
	MinNotional float64 `json:"min_notional" yaml:"min_notional"`
}

// Default returns the built-in risk configuration
func Default() *RiskConfiguration {
	return &RiskConfiguration{
		BaseRiskPercentage: 1.0,
		MaxRiskPercentage:  3.0,
		MinRiskPercentage:  0.25,
		VolatilityAdjustment: VolatilityAdjustmentConfig{
			Enabled:                  true,
			HighVolatilityThreshold:  0.03,
			LowVolatilityThreshold:   0.01,
			HighVolatilityMultiplier: 0.5,
			LowVolatilityMultiplier:  1.5,
		},
		DrawdownProtection: DrawdownProtectionConfig{
			Enabled:               true,
			DrawdownLevels:        []float64{5, 10, 15, 20},
			RiskReductionPercents: []float64{25, 50, 75, 90},
		},
		PositionLimits: PositionLimitsConfig{
			MaxPositions:                 5,
			MaxPositionsPerDirection:     3,
			PositionCorrelationThreshold: 0.7,
		},
		CapitalAllocation: CapitalAllocationConfig{
			Method: AllocationEqual,
		},
		LiquidityRequirements: LiquidityRequirementsConfig{
			Min24hVolume:       1_000_000,
			MinOrderbookDepth:  50_000,
			MaxSlippagePercent: 0.5,
		},
		SmallAccountSettings: DefaultSmallAccountSettings(),
	}
}

// DefaultSmallAccountSettings returns the small-account defaults
func DefaultSmallAccountSettings() *SmallAccountSettings {
	return &SmallAccountSettings{
		Enabled:                   true,
		AccountSizeThreshold:      1000,
		RiskPerTradeAdjustment:    0.7,
		BTCLeverageAdjustment:     1.0,
		ETHLeverageAdjustment:     0.9,
		AltcoinLeverageAdjustment: 0.7,
		MinPositionValue:          10,
		MaxAccountPercent:         50,
	}
}

// Clone returns a deep copy so callers can never alias stored slices or maps
func (c *RiskConfiguration) Clone() *RiskConfiguration {
	if c == nil {
		return nil
	}
	out := *c
	out.DrawdownProtection.DrawdownLevels = append([]float64(nil), c.DrawdownProtection.DrawdownLevels...)
	out.DrawdownProtection.RiskReductionPercents = append([]float64(nil), c.DrawdownProtection.RiskReductionPercents...)
	if c.SmallAccountSettings != nil {
		sa := *c.SmallAccountSettings
		if c.SmallAccountSettings.LeverageAdjustments != nil {
			sa.LeverageAdjustments = make(map[string]float64, len(c.SmallAccountSettings.LeverageAdjustments))
			for k, v := range c.SmallAccountSettings.LeverageAdjustments {
				sa.LeverageAdjustments[k] = v
			}
		}
		out.SmallAccountSettings = &sa
	}
	if c.Symbols != nil {
		out.Symbols = make(map[string]SymbolSettings, len(c.Symbols))
		for k, v := range c.Symbols {
			out.Symbols[k] = v
		}
	}
	return &out
}

// SmallAccountEnabled reports whether the small-account policy is configured and on
func (c *RiskConfiguration) SmallAccountEnabled() bool {
	return c.SmallAccountSettings != nil && c.SmallAccountSettings.Enabled
}
