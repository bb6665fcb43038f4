package risk

import "github.com/ducminhle1904/position-risk-engine/pkg/types"

// RiskManager defines the per-trade risk pipeline
type RiskManager interface {
	// CalculateRiskPercentage returns the bounded risk percentage for a trade
	CalculateRiskPercentage(symbol, timeframe string, regime types.MarketRegime, accountBalance float64, drawdown *float64) float64

	// CalculatePositionSize sizes a position from a risk percentage and stop distance
	CalculatePositionSize(symbol string, entryPrice, stopLoss, accountBalance, riskPercentage, maxPositionPercent float64) PositionSizingResult

	// CheckLiquidity inspects the order book for a buy of positionSizeUSD
	CheckLiquidity(symbol string, positionSizeUSD float64, book *types.OrderBook) LiquidityCheck

	// AdjustPositionSizeByLiquidity shrinks a sizing result the book cannot absorb
	AdjustPositionSizeByLiquidity(result PositionSizingResult, book *types.OrderBook) PositionSizingResult
}
