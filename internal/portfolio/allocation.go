package portfolio

import (
	"sort"

	"github.com/ducminhle1904/position-risk-engine/internal/config"
	"github.com/ducminhle1904/position-risk-engine/internal/indicators/base"
	"github.com/ducminhle1904/position-risk-engine/internal/logger"
	"github.com/ducminhle1904/position-risk-engine/internal/monitoring"
)

// MarketSnapshot carries the per-symbol inputs used by the weighted methods
type MarketSnapshot struct {
	Volatility float64 `json:"volatility"`
	Volume24h  float64 `json:"volume_24h"`
}

// Signal is a strategy signal; only Strength is used for allocation
type Signal struct {
	Strength float64 `json:"strength"`
}

// CapitalAllocation maps symbol to percentage of capital (0-100)
type CapitalAllocation map[string]float64

// Total returns the sum of all percentages
func (a CapitalAllocation) Total() float64 {
	total := 0.0
	for _, pct := range a {
		total += pct
	}
	return total
}

// Amounts converts percentages into amounts of balance
func (a CapitalAllocation) Amounts(balance float64) map[string]float64 {
	out := make(map[string]float64, len(a))
	for symbol, pct := range a {
		out[symbol] = balance * pct / 100
	}
	return out
}

// Symbols returns the allocated symbols sorted by name
func (a CapitalAllocation) Symbols() []string {
	out := make([]string, 0, len(a))
	for symbol := range a {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// CapitalAllocator splits capital across symbols using the configured method
type CapitalAllocator struct {
	cfg config.Source
	log *logger.Logger
}

// NewCapitalAllocator creates a new allocator reading the method from cfg
func NewCapitalAllocator(cfg config.Source, log *logger.Logger) *CapitalAllocator {
	return &CapitalAllocator{
		cfg: cfg,
		log: logger.OrNop(log).With("component", "allocator"),
	}
}

// AllocateCapital splits 100% across symbols with the configured method.
// accountBalance does not influence the percentages; use Amounts to convert.
func (a *CapitalAllocator) AllocateCapital(symbols []string, accountBalance float64,
	market map[string]MarketSnapshot, signals map[string]Signal) CapitalAllocation {

	method := a.cfg.Get().CapitalAllocation.Method
	allocation, fellBack := Allocate(method, symbols, market, signals)
	if fellBack {
		a.log.Warning("%s allocation has no usable weights, using equal split", method)
	}

	monitoring.UpdateAllocation(string(method), allocation)
	return allocation
}

// Allocate computes an allocation with an explicit method. fellBack reports
// whether the equal split was used in place of the requested method.
func Allocate(method config.AllocationMethod, symbols []string,
	market map[string]MarketSnapshot, signals map[string]Signal) (CapitalAllocation, bool) {

	symbols = dedupe(symbols)
	if len(symbols) == 0 {
		return CapitalAllocation{}, false
	}

	var weights []float64
	switch method {
	case config.AllocationVolatilityBased:
		weights = volatilityWeights(symbols, market)
	case config.AllocationSignalStrength:
		weights = signalWeights(symbols, signals)
	case config.AllocationVolumeBased:
		weights = volumeWeights(symbols, market)
	default:
		return equal(symbols), false
	}

	allocation, ok := normalize(symbols, weights)
	if !ok {
		return equal(symbols), true
	}
	return allocation, false
}

// volatilityWeights weights each symbol by 1/volatility. Missing or
// non-positive volatility uses the default volatility.
func volatilityWeights(symbols []string, market map[string]MarketSnapshot) []float64 {
	if market == nil {
		return nil
	}
	weights := make([]float64, len(symbols))
	for i, symbol := range symbols {
		vol := market[symbol].Volatility
		if vol <= 0 {
			vol = base.DefaultVolatility
		}
		weights[i] = 1 / vol
	}
	return weights
}

func signalWeights(symbols []string, signals map[string]Signal) []float64 {
	if signals == nil {
		return nil
	}
	weights := make([]float64, len(symbols))
	for i, symbol := range symbols {
		weights[i] = nonNegative(signals[symbol].Strength)
	}
	return weights
}

func volumeWeights(symbols []string, market map[string]MarketSnapshot) []float64 {
	if market == nil {
		return nil
	}
	weights := make([]float64, len(symbols))
	for i, symbol := range symbols {
		weights[i] = nonNegative(market[symbol].Volume24h)
	}
	return weights
}

// normalize scales weights to percentages. The floating point residual is
// folded into the largest weight so the total is exactly 100 and zero
// weights stay at exactly 0.
func normalize(symbols []string, weights []float64) (CapitalAllocation, bool) {
	if len(weights) != len(symbols) {
		return nil, false
	}

	total := 0.0
	largest := 0
	for i, w := range weights {
		total += w
		if w > weights[largest] {
			largest = i
		}
	}
	if total <= 0 {
		return nil, false
	}

	out := make(CapitalAllocation, len(symbols))
	assigned := 0.0
	for i, symbol := range symbols {
		if i == largest {
			continue
		}
		pct := weights[i] / total * 100
		out[symbol] = pct
		assigned += pct
	}
	out[symbols[largest]] = 100 - assigned
	return out, true
}

func equal(symbols []string) CapitalAllocation {
	weights := make([]float64, len(symbols))
	for i := range weights {
		weights[i] = 1
	}
	out, _ := normalize(symbols, weights)
	return out
}

func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
