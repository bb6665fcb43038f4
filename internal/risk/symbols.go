package risk

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/position-risk-engine/internal/config"
)

// SymbolSpec holds exchange quantization rules for a symbol
type SymbolSpec struct {
	StepSize    float64 `json:"step_size"`
	MinNotional float64 `json:"min_notional"`
}

// DefaultSymbolSpec applies to symbols missing from the table
var DefaultSymbolSpec = SymbolSpec{StepSize: 0.001, MinNotional: 5.0}

var builtinSymbols = map[string]SymbolSpec{
	"BTCUSDT": {StepSize: 0.001, MinNotional: 5.0},
	"ETHUSDT": {StepSize: 0.01, MinNotional: 5.0},
}

// SymbolTable is a lookup of SymbolSpec by symbol with a default entry
type SymbolTable struct {
	mu    sync.RWMutex
	specs map[string]SymbolSpec
}

// NewSymbolTable creates a table with the built-in entries plus overrides
func NewSymbolTable(overrides map[string]config.SymbolSettings) *SymbolTable {
	t := &SymbolTable{specs: make(map[string]SymbolSpec, len(builtinSymbols)+len(overrides))}
	for symbol, spec := range builtinSymbols {
		t.specs[symbol] = spec
	}
	for symbol, s := range overrides {
		t.specs[symbol] = SymbolSpec{StepSize: s.StepSize, MinNotional: s.MinNotional}
	}
	return t
}

// Lookup returns the spec for symbol or DefaultSymbolSpec
func (t *SymbolTable) Lookup(symbol string) SymbolSpec {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if spec, ok := t.specs[symbol]; ok {
		return spec
	}
	return DefaultSymbolSpec
}

// Set replaces the spec for symbol, typically with exchange instrument info
func (t *SymbolTable) Set(symbol string, spec SymbolSpec) {
	if spec.StepSize <= 0 {
		spec.StepSize = DefaultSymbolSpec.StepSize
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.specs[symbol] = spec
}

// Quantize floors quantity to a multiple of the symbol's step size
func (t *SymbolTable) Quantize(symbol string, quantity float64) float64 {
	return FloorToStep(quantity, t.Lookup(symbol).StepSize)
}

// FloorToStep rounds quantity down to a multiple of step using decimal
// arithmetic so 0.1 / 0.001 does not drift to 99.999...
func FloorToStep(quantity, step float64) float64 {
	if quantity <= 0 {
		return 0
	}
	if step <= 0 {
		return quantity
	}
	q := decimal.NewFromFloat(quantity)
	s := decimal.NewFromFloat(step)
	return q.Div(s).Floor().Mul(s).InexactFloat64()
}
