package risk

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/position-risk-engine/internal/config"
	"github.com/ducminhle1904/position-risk-engine/internal/logger"
	"github.com/ducminhle1904/position-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/position-risk-engine/internal/portfolio"
)

// DefaultMaxPositionPercent caps a standard-account position at 20% of balance
const DefaultMaxPositionPercent = 20.0

// PositionSizer converts a risk percentage and stop distance into a position
type PositionSizer struct {
	cfg      config.Source
	symbols  *SymbolTable
	leverage portfolio.LeverageCalculator
	log      *logger.Logger
}

// NewPositionSizer creates a sizer. A nil symbol table uses the built-in entries.
func NewPositionSizer(cfg config.Source, symbols *SymbolTable, log *logger.Logger) *PositionSizer {
	if symbols == nil {
		symbols = NewSymbolTable(cfg.Get().Symbols)
	}
	return &PositionSizer{
		cfg:      cfg,
		symbols:  symbols,
		leverage: portfolio.NewLeverageCalculator(),
		log:      logger.OrNop(log).With("component", "position_sizer"),
	}
}

// Symbols returns the quantization table used by the sizer
func (s *PositionSizer) Symbols() *SymbolTable {
	return s.symbols
}

// CalculatePositionSize sizes a position so that hitting stopLoss loses
// riskPercentage of accountBalance. Balances below the small-account
// threshold use the small-account policy. maxPositionPercent <= 0 means
// DefaultMaxPositionPercent.
func (s *PositionSizer) CalculatePositionSize(symbol string, entryPrice, stopLoss, accountBalance,
	riskPercentage, maxPositionPercent float64) PositionSizingResult {

	if maxPositionPercent <= 0 {
		maxPositionPercent = DefaultMaxPositionPercent
	}

	result := PositionSizingResult{
		Symbol:         symbol,
		EntryPrice:     entryPrice,
		StopLoss:       stopLoss,
		RiskPercentage: riskPercentage,
		AccountBalance: accountBalance,
		Leverage:       1.0,
	}

	if accountBalance <= 0 || entryPrice <= 0 || riskPercentage <= 0 {
		result.Warning = degenerateWarning(accountBalance, entryPrice, riskPercentage)
		return result
	}

	cfg := s.cfg.Get()
	if cfg.SmallAccountEnabled() && accountBalance < cfg.SmallAccountSettings.AccountSizeThreshold {
		result = s.smallAccountSize(result, cfg.SmallAccountSettings, maxPositionPercent)
	} else {
		result = s.standardSize(result, maxPositionPercent)
	}

	monitoring.RecordPositionSize(symbol, result.IsSmallAccount, result.PositionSizeUSD)
	return result
}

func (s *PositionSizer) standardSize(r PositionSizingResult, maxPositionPercent float64) PositionSizingResult {
	r.RiskAmount = r.AccountBalance * r.RiskPercentage / 100

	slDistance := StopDistancePercent(r.EntryPrice, r.StopLoss)
	if slDistance > 0 {
		r.PositionSizeUSD = r.RiskAmount / (slDistance / 100)
	} else {
		r.Warning = "stop loss equals entry price"
	}

	maxSize := r.AccountBalance * maxPositionPercent / 100
	if r.PositionSizeUSD > maxSize {
		s.log.Debug("%s position %.2f capped at %.2f (%.1f%% of balance)", r.Symbol, r.PositionSizeUSD, maxSize, maxPositionPercent)
		r.PositionSizeUSD = maxSize
	}

	return s.finalize(r)
}

// finalize sets quantity, leverage and the min-notional warning
func (s *PositionSizer) finalize(r PositionSizingResult) PositionSizingResult {
	spec := s.symbols.Lookup(r.Symbol)
	r.Quantity = FloorToStep(r.PositionSizeUSD/r.EntryPrice, spec.StepSize)
	r.Leverage = s.leverage.GetEffectiveLeverage(r.PositionSizeUSD, r.AccountBalance)

	if r.PositionSizeUSD > 0 && r.Quantity*r.EntryPrice < spec.MinNotional {
		r.Warning = appendWarning(r.Warning, fmt.Sprintf("order notional %.2f below minimum %.2f for %s",
			r.Quantity*r.EntryPrice, spec.MinNotional, r.Symbol))
	}
	return r
}

// StopDistancePercent returns |entry - stop| / entry in percent, 0 for a
// non-positive entry
func StopDistancePercent(entryPrice, stopLoss float64) float64 {
	if entryPrice <= 0 {
		return 0
	}
	return math.Abs(entryPrice-stopLoss) / entryPrice * 100
}

func degenerateWarning(balance, entry, risk float64) string {
	switch {
	case balance <= 0:
		return "account balance is not positive"
	case entry <= 0:
		return "entry price is not positive"
	default:
		return fmt.Sprintf("risk percentage %.4f is not positive", risk)
	}
}

func appendWarning(existing, msg string) string {
	if existing == "" {
		return msg
	}
	return existing + "; " + msg
}
