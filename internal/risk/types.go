package risk

import (
	"time"

	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// PositionSizingResult is the outcome of sizing one trade. It is a value:
// the liquidity adjustment returns a modified copy.
type PositionSizingResult struct {
	Symbol          string  `json:"symbol"`
	EntryPrice      float64 `json:"entry_price"`
	StopLoss        float64 `json:"stop_loss"`
	RiskPercentage  float64 `json:"risk_percentage"`
	RiskAmount      float64 `json:"risk_amount"`
	PositionSizeUSD float64 `json:"position_size_usd"`
	Quantity        float64 `json:"quantity"`
	AccountBalance  float64 `json:"account_balance"`
	Leverage        float64 `json:"leverage"`
	IsSmallAccount  bool    `json:"is_small_account"`

	LiquidityAdjusted       bool    `json:"liquidity_adjusted"`
	OriginalPositionSizeUSD float64 `json:"original_position_size_usd,omitempty"`
	Slippage                float64 `json:"slippage"`
	Warning                 string  `json:"warning,omitempty"`
}

// RiskAllocationRecord is one entry of the risk calculation history
type RiskAllocationRecord struct {
	Timestamp    time.Time          `json:"timestamp"`
	Symbol       string             `json:"symbol"`
	Timeframe    string             `json:"timeframe"`
	MarketRegime types.MarketRegime `json:"market_regime"`
	Volatility   float64            `json:"volatility"`
	BaseRisk     float64            `json:"base_risk"`
	AdjustedRisk float64            `json:"adjusted_risk"`
	Drawdown     *float64           `json:"drawdown,omitempty"`
}

// LiquidityReason identifies why a liquidity check failed
type LiquidityReason string

const (
	ReasonNoOrderBook    LiquidityReason = "no_orderbook"
	ReasonLowVolume      LiquidityReason = "low_volume"
	ReasonThinOrderBook  LiquidityReason = "thin_orderbook"
	ReasonExcessSlippage LiquidityReason = "excess_slippage"
)

// SlippageUndefined marks a slippage that could not be measured
const SlippageUndefined = -1.0

// LiquidityCheck is the result of inspecting an order book for a trade size
type LiquidityCheck struct {
	IsLiquid bool              `json:"is_liquid"`
	Slippage float64           `json:"slippage"`
	Warning  string            `json:"warning,omitempty"`
	Reasons  []LiquidityReason `json:"reasons,omitempty"`
}

// SlippageKnown reports whether Slippage holds a measured value
func (c LiquidityCheck) SlippageKnown() bool {
	return c.Slippage != SlippageUndefined
}

func (c LiquidityCheck) has(reason LiquidityReason) bool {
	for _, r := range c.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}
