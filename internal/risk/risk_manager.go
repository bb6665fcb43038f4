package risk

import (
	"time"

	"github.com/ducminhle1904/position-risk-engine/internal/config"
	"github.com/ducminhle1904/position-risk-engine/internal/logger"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// Engine wires the calculator, sizer and liquidity guard over one
// configuration and one symbol table
type Engine struct {
	cfg        config.Source
	symbols    *SymbolTable
	calculator *Calculator
	sizer      *PositionSizer
	guard      *LiquidityGuard
	log        *logger.Logger

	// MaxBookAge rejects order books older than this; zero disables the check
	MaxBookAge time.Duration
	now        func() time.Time
}

var _ RiskManager = (*Engine)(nil)

// NewEngine creates a risk engine. vol may be nil.
func NewEngine(cfg config.Source, vol VolatilitySource, log *logger.Logger) *Engine {
	log = logger.OrNop(log)
	symbols := NewSymbolTable(cfg.Get().Symbols)
	return &Engine{
		cfg:        cfg,
		symbols:    symbols,
		calculator: NewCalculator(cfg, vol, nil, log),
		sizer:      NewPositionSizer(cfg, symbols, log),
		guard:      NewLiquidityGuard(cfg, symbols, log),
		log:        log.With("component", "risk_engine"),
		now:        time.Now,
	}
}

func (e *Engine) Symbols() *SymbolTable { return e.symbols }

func (e *Engine) History() *History { return e.calculator.History() }

func (e *Engine) CalculateRiskPercentage(symbol, timeframe string, regime types.MarketRegime, accountBalance float64, drawdown *float64) float64 {
	return e.calculator.CalculateRiskPercentage(symbol, timeframe, regime, accountBalance, drawdown)
}

func (e *Engine) CalculatePositionSize(symbol string, entryPrice, stopLoss, accountBalance, riskPercentage, maxPositionPercent float64) PositionSizingResult {
	return e.sizer.CalculatePositionSize(symbol, entryPrice, stopLoss, accountBalance, riskPercentage, maxPositionPercent)
}

func (e *Engine) CheckLiquidity(symbol string, positionSizeUSD float64, book *types.OrderBook) LiquidityCheck {
	return e.guard.CheckLiquidity(symbol, positionSizeUSD, book)
}

func (e *Engine) CheckLiquiditySide(symbol string, positionSizeUSD float64, book *types.OrderBook, side types.Side) LiquidityCheck {
	return e.guard.CheckLiquiditySide(symbol, positionSizeUSD, book, side)
}

func (e *Engine) AdjustPositionSizeByLiquidity(result PositionSizingResult, book *types.OrderBook) PositionSizingResult {
	return e.guard.AdjustPositionSizeByLiquidity(result, book)
}

// CheckPositionLimits applies the configured position limits
func (e *Engine) CheckPositionLimits(open []OpenPosition, symbol string, side types.Side) (bool, string) {
	return CheckPositionLimits(e.cfg.Get().PositionLimits, open, symbol, side)
}

// SizeRequest carries the inputs of one pass through the pipeline
type SizeRequest struct {
	Symbol             string
	Timeframe          string
	Regime             types.MarketRegime
	Side               types.Side
	EntryPrice         float64
	StopLoss           float64
	AccountBalance     float64
	Drawdown           *float64
	MaxPositionPercent float64
	OrderBook          *types.OrderBook

	// RiskPercentage, when positive, is used as is and the calculator is skipped
	RiskPercentage float64
}

// Size runs risk percentage, position sizing and the liquidity adjustment
// in order. A stale order book is treated as unavailable.
func (e *Engine) Size(req SizeRequest) PositionSizingResult {
	riskPct := req.RiskPercentage
	if riskPct <= 0 {
		riskPct = e.calculator.CalculateRiskPercentage(req.Symbol, req.Timeframe, req.Regime, req.AccountBalance, req.Drawdown)
	}
	result := e.sizer.CalculatePositionSize(req.Symbol, req.EntryPrice, req.StopLoss, req.AccountBalance, riskPct, req.MaxPositionPercent)

	if result.PositionSizeUSD <= 0 {
		return result
	}

	book := req.OrderBook
	if book != nil && e.MaxBookAge > 0 && book.IsStale(e.now(), e.MaxBookAge) {
		e.log.Warning("%s order book is older than %s, treating as unavailable", req.Symbol, e.MaxBookAge)
		book = nil
	}

	side := req.Side
	if side == "" {
		side = types.SideLong
	}
	return e.guard.AdjustPositionSizeByLiquiditySide(result, book, side)
}
