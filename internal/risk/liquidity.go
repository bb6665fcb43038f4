package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/ducminhle1904/position-risk-engine/internal/config"
	"github.com/ducminhle1904/position-risk-engine/internal/logger"
	"github.com/ducminhle1904/position-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// flatLiquidityShrink is applied when a check fails for a reason other than slippage
const flatLiquidityShrink = 0.5

// LiquidityGuard checks order-book depth and volume before a trade and
// shrinks positions that the market cannot absorb
type LiquidityGuard struct {
	cfg     config.Source
	symbols *SymbolTable
	log     *logger.Logger
}

func NewLiquidityGuard(cfg config.Source, symbols *SymbolTable, log *logger.Logger) *LiquidityGuard {
	if symbols == nil {
		symbols = NewSymbolTable(cfg.Get().Symbols)
	}
	return &LiquidityGuard{
		cfg:     cfg,
		symbols: symbols,
		log:     logger.OrNop(log).With("component", "liquidity_guard"),
	}
}

// CheckLiquidity checks a buy of positionSizeUSD against the book
func (g *LiquidityGuard) CheckLiquidity(symbol string, positionSizeUSD float64, book *types.OrderBook) LiquidityCheck {
	return g.CheckLiquiditySide(symbol, positionSizeUSD, book, types.SideLong)
}

// CheckLiquiditySide checks a trade in either direction. Longs walk the
// asks, shorts walk the bids. Failures are reported, never returned as errors.
func (g *LiquidityGuard) CheckLiquiditySide(symbol string, positionSizeUSD float64, book *types.OrderBook, side types.Side) LiquidityCheck {
	req := g.cfg.Get().LiquidityRequirements

	if book == nil || (len(book.Bids) == 0 && len(book.Asks) == 0) {
		check := LiquidityCheck{
			Slippage: SlippageUndefined,
			Warning:  "order book unavailable",
			Reasons:  []LiquidityReason{ReasonNoOrderBook},
		}
		g.report(symbol, check)
		return check
	}

	var warnings []string
	check := LiquidityCheck{IsLiquid: true}

	if book.QuoteVolume24h < req.Min24hVolume {
		check.Reasons = append(check.Reasons, ReasonLowVolume)
		warnings = append(warnings, fmt.Sprintf("24h volume %.0f below minimum %.0f", book.QuoteVolume24h, req.Min24hVolume))
	}

	bidDepth, askDepth := book.BidDepth(), book.AskDepth()
	if bidDepth < req.MinOrderbookDepth || askDepth < req.MinOrderbookDepth {
		check.Reasons = append(check.Reasons, ReasonThinOrderBook)
		warnings = append(warnings, fmt.Sprintf("order book depth bid %.0f / ask %.0f below minimum %.0f",
			bidDepth, askDepth, req.MinOrderbookDepth))
	}

	levels := book.Asks
	if !side.IsLong() {
		levels = book.Bids
	}
	slippage, filled := EstimateSlippage(levels, positionSizeUSD, side)
	check.Slippage = slippage
	switch {
	case slippage == SlippageUndefined:
		check.Reasons = append(check.Reasons, ReasonThinOrderBook)
		warnings = append(warnings, "no levels on the execution side")
	case !filled:
		warnings = append(warnings, fmt.Sprintf("book too thin to fill %.2f, remainder priced at last level", positionSizeUSD))
		fallthrough
	default:
		if slippage > req.MaxSlippagePercent {
			check.Reasons = append(check.Reasons, ReasonExcessSlippage)
			warnings = append(warnings, fmt.Sprintf("expected slippage %.4f%% above maximum %.4f%%", slippage, req.MaxSlippagePercent))
		}
	}

	check.IsLiquid = len(check.Reasons) == 0
	check.Warning = strings.Join(warnings, "; ")
	g.report(symbol, check)
	return check
}

func (g *LiquidityGuard) report(symbol string, check LiquidityCheck) {
	if check.SlippageKnown() {
		monitoring.UpdateSlippage(symbol, check.Slippage)
	}
	for _, r := range check.Reasons {
		monitoring.RecordLiquidityRejection(symbol, string(r))
	}
	if !check.IsLiquid {
		g.log.Warning("%s failed liquidity check: %s", symbol, check.Warning)
	}
}

// AdjustPositionSizeByLiquidity shrinks a long result the book cannot absorb
func (g *LiquidityGuard) AdjustPositionSizeByLiquidity(result PositionSizingResult, book *types.OrderBook) PositionSizingResult {
	return g.AdjustPositionSizeByLiquiditySide(result, book, types.SideLong)
}

// AdjustPositionSizeByLiquiditySide returns result unchanged apart from the
// measured slippage when the check passes. Otherwise the size is scaled by
// max/measured slippage for a slippage failure, by 0.5 for any other failure,
// and by the smaller of the two when both apply.
func (g *LiquidityGuard) AdjustPositionSizeByLiquiditySide(result PositionSizingResult, book *types.OrderBook, side types.Side) PositionSizingResult {
	check := g.CheckLiquiditySide(result.Symbol, result.PositionSizeUSD, book, side)
	if check.SlippageKnown() {
		result.Slippage = check.Slippage
	}
	if check.IsLiquid {
		return result
	}

	ratio := shrinkRatio(check, g.cfg.Get().LiquidityRequirements.MaxSlippagePercent)

	result.OriginalPositionSizeUSD = result.PositionSizeUSD
	result.PositionSizeUSD *= ratio
	if result.EntryPrice > 0 {
		result.Quantity = g.symbols.Quantize(result.Symbol, result.PositionSizeUSD/result.EntryPrice)
	} else {
		result.Quantity = 0
	}
	result.LiquidityAdjusted = true
	result.Warning = appendWarning(result.Warning, check.Warning)

	g.log.Info("%s position reduced from %.2f to %.2f (x%.4f)", result.Symbol,
		result.OriginalPositionSizeUSD, result.PositionSizeUSD, ratio)
	return result
}

func shrinkRatio(check LiquidityCheck, maxSlippage float64) float64 {
	ratio := 1.0
	other := false
	for _, r := range check.Reasons {
		if r == ReasonExcessSlippage {
			if check.Slippage > 0 {
				ratio = math.Min(ratio, maxSlippage/check.Slippage)
			}
			continue
		}
		other = true
	}
	if other {
		ratio = math.Min(ratio, flatLiquidityShrink)
	}
	return ratio
}

// EstimateSlippage walks levels (best first) until sizeUSD of notional is
// filled and returns the volume-weighted fill price's distance from the best
// fillable level in percent. Levels with no price or quantity are skipped.
// filled is false when the book ran out; the remainder is then priced at the
// last level.
func EstimateSlippage(levels []types.OrderBookLevel, sizeUSD float64, side types.Side) (slippage float64, filled bool) {
	best := 0.0
	for _, level := range levels {
		if level.Price > 0 && level.Quantity > 0 {
			best = level.Price
			break
		}
	}
	if best <= 0 {
		return SlippageUndefined, false
	}
	if sizeUSD <= 0 {
		return 0, true
	}

	remaining := sizeUSD
	quantity := 0.0
	lastPrice := best

	for _, level := range levels {
		if level.Price <= 0 || level.Quantity <= 0 {
			continue
		}
		lastPrice = level.Price
		take := math.Min(remaining, level.Notional())
		quantity += take / level.Price
		remaining -= take
		if remaining <= 0 {
			break
		}
	}

	filled = remaining <= 1e-9
	if !filled {
		quantity += remaining / lastPrice
	}

	avgFill := sizeUSD / quantity
	if side.IsLong() {
		return (avgFill - best) / best * 100, filled
	}
	return (best - avgFill) / best * 100, filled
}
