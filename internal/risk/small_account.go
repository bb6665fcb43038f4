package risk

import (
	"math"

	"github.com/ducminhle1904/position-risk-engine/internal/config"
)

// minSmallAccountStopPercent is the narrowest stop distance the small-account
// policy sizes against
const minSmallAccountStopPercent = 1.0

// LeverageTable maps symbols to the small-account leverage adjustment, with
// the altcoin factor as the default entry
type LeverageTable struct {
	factors  map[string]float64
	fallback float64
}

// NewLeverageTable builds the table from settings; per-symbol overrides win
// over the BTC and ETH entries.
func NewLeverageTable(sa *config.SmallAccountSettings) LeverageTable {
	t := LeverageTable{
		factors: map[string]float64{
			"BTCUSDT": sa.BTCLeverageAdjustment,
			"ETHUSDT": sa.ETHLeverageAdjustment,
		},
		fallback: sa.AltcoinLeverageAdjustment,
	}
	for symbol, f := range sa.LeverageAdjustments {
		t.factors[symbol] = f
	}
	return t
}

// Factor returns the adjustment for symbol
func (t LeverageTable) Factor(symbol string) float64 {
	if f, ok := t.factors[symbol]; ok {
		return f
	}
	return t.fallback
}

// smallAccountSize reduces risk, widens tight stops to 1%, applies the
// per-symbol leverage factor, then floors the size at the minimum tradable
// value and caps it at the lower of max_account_percent and
// maxPositionPercent of the balance. The cap wins over the floor.
func (s *PositionSizer) smallAccountSize(r PositionSizingResult, sa *config.SmallAccountSettings, maxPositionPercent float64) PositionSizingResult {
	r.IsSmallAccount = true
	r.RiskPercentage = r.RiskPercentage * sa.RiskPerTradeAdjustment
	r.RiskAmount = r.AccountBalance * r.RiskPercentage / 100

	slDistance := math.Max(StopDistancePercent(r.EntryPrice, r.StopLoss), minSmallAccountStopPercent)
	size := r.RiskAmount / (slDistance / 100)
	size *= NewLeverageTable(sa).Factor(r.Symbol)

	spec := s.symbols.Lookup(r.Symbol)
	minSize := math.Min(sa.MinPositionValue, spec.MinNotional)
	if size < minSize {
		s.log.Debug("%s small-account size %.2f raised to minimum %.2f", r.Symbol, size, minSize)
		size = minSize
	}

	maxSize := r.AccountBalance * math.Min(sa.MaxAccountPercent, maxPositionPercent) / 100
	if size > maxSize {
		size = maxSize
	}

	r.PositionSizeUSD = size
	return s.finalize(r)
}
