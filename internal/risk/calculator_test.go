package risk

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/position-risk-engine/internal/config"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

type volBySymbol map[string]float64

func (v volBySymbol) Volatility(symbol, _ string) float64 { return v[symbol] }

func ptr(f float64) *float64 { return &f }

func newCalculator(cfg *config.RiskConfiguration, vol float64) *Calculator {
	return NewCalculator(config.Static{Config: cfg}, FixedVolatility(vol), nil, nil)
}

func TestVolatilityMultiplier(t *testing.T) {
	v := config.Default().VolatilityAdjustment

	tests := []struct {
		name       string
		volatility float64
		expected   float64
	}{
		{"above high threshold", 0.04, 0.5},
		{"at high threshold", 0.03, 0.5},
		{"below low threshold", 0.005, 1.5},
		{"at low threshold", 0.01, 1.5},
		{"midpoint interpolates", 0.02, 1.0},
		{"quarter interpolates", 0.015, 1.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, VolatilityMultiplier(v, tt.volatility), 1e-9)
		})
	}

	v.Enabled = false
	assert.Equal(t, 1.0, VolatilityMultiplier(v, 0.5))
}

func TestDrawdownReduction(t *testing.T) {
	d := config.Default().DrawdownProtection

	tests := []struct {
		drawdown float64
		expected float64
	}{
		{0, 0},
		{4.99, 0},
		{5, 25},
		{7.5, 25},
		{10, 50},
		{19.9, 75},
		{35, 90},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("dd=%.2f", tt.drawdown), func(t *testing.T) {
			assert.Equal(t, tt.expected, DrawdownReduction(d, tt.drawdown))
		})
	}

	d.Enabled = false
	assert.Equal(t, 0.0, DrawdownReduction(d, 50))
}

func TestCalculateRiskPercentage_HighVolatilityHalvesRisk(t *testing.T) {
	calc := newCalculator(config.Default(), 0.04)

	risk := calc.CalculateRiskPercentage("BTCUSDT", "1h", types.RegimeUnknown, 10000, nil)
	assert.InDelta(t, 0.5, risk, 1e-9)
}

func TestCalculateRiskPercentage_RegimeAndDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		vol      float64
		regime   types.MarketRegime
		drawdown *float64
		expected float64
	}{
		{"trending mid vol", 0.02, types.RegimeTrending, nil, 1.2},
		{"ranging mid vol", 0.02, types.RegimeRanging, nil, 0.8},
		{"volatile mid vol", 0.02, types.RegimeVolatile, nil, 0.6},
		{"quiet mid vol", 0.02, types.RegimeQuiet, nil, 1.0},
		{"unknown regime", 0.02, types.MarketRegime("sideways"), nil, 1.0},
		{"low vol trending", 0.005, types.RegimeTrending, nil, 1.8},
		{"drawdown tier 2", 0.02, types.RegimeQuiet, ptr(12), 0.5},
		{"below first tier", 0.02, types.RegimeQuiet, ptr(2), 1.0},
		{"clamped to min", 0.04, types.RegimeVolatile, ptr(25), 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := newCalculator(config.Default(), tt.vol)
			assert.InDelta(t, tt.expected, calc.CalculateRiskPercentage("ETHUSDT", "4h", tt.regime, 5000, tt.drawdown), 1e-9)
		})
	}
}

func TestCalculateRiskPercentage_ClampedToMax(t *testing.T) {
	cfg := config.Default()
	cfg.BaseRiskPercentage = 2.5
	calc := newCalculator(cfg, 0.001)

	// 2.5 * 1.5 * 1.2 = 4.5
	assert.Equal(t, 3.0, calc.CalculateRiskPercentage("BTCUSDT", "1h", types.RegimeTrending, 10000, nil))
}

func TestCalculateRiskPercentage_AlwaysWithinBounds(t *testing.T) {
	cfg := config.Default()
	rng := rand.New(rand.NewSource(42))
	regimes := []types.MarketRegime{types.RegimeTrending, types.RegimeRanging, types.RegimeVolatile, types.RegimeQuiet, "other"}

	for i := 0; i < 500; i++ {
		calc := newCalculator(cfg, rng.Float64()*0.1)
		var dd *float64
		if i%2 == 0 {
			dd = ptr(rng.Float64() * 40)
		}
		risk := calc.CalculateRiskPercentage("X", "1h", regimes[i%len(regimes)], 1000, dd)
		require.GreaterOrEqual(t, risk, cfg.MinRiskPercentage)
		require.LessOrEqual(t, risk, cfg.MaxRiskPercentage)
	}
}

func TestCalculateRiskPercentage_IdempotentExceptHistory(t *testing.T) {
	calc := NewCalculator(config.Static{}, volBySymbol{"SOLUSDT": 0.025}, nil, nil)

	first := calc.CalculateRiskPercentage("SOLUSDT", "15m", types.RegimeRanging, 2000, ptr(6))
	second := calc.CalculateRiskPercentage("SOLUSDT", "15m", types.RegimeRanging, 2000, ptr(6))
	assert.Equal(t, first, second)

	records := calc.History().Records()
	require.Len(t, records, 2)
	assert.Equal(t, "SOLUSDT", records[1].Symbol)
	assert.Equal(t, types.RegimeRanging, records[1].MarketRegime)
	assert.Equal(t, 0.025, records[1].Volatility)
	assert.Equal(t, 1.0, records[1].BaseRisk)
	assert.Equal(t, second, records[1].AdjustedRisk)
	require.NotNil(t, records[1].Drawdown)
	assert.Equal(t, 6.0, *records[1].Drawdown)
}

func TestCalculateRiskPercentage_ReadsLatestConfig(t *testing.T) {
	store := config.NewMemoryStore(nil)
	calc := NewCalculator(store, FixedVolatility(0.02), nil, nil)

	assert.InDelta(t, 1.0, calc.CalculateRiskPercentage("BTCUSDT", "1h", types.RegimeQuiet, 0, nil), 1e-9)

	require.NoError(t, store.SetBaseRisk(2.0, 0.5, 3.0))
	assert.InDelta(t, 2.0, calc.CalculateRiskPercentage("BTCUSDT", "1h", types.RegimeQuiet, 0, nil), 1e-9)
}

func TestCalculateRiskPercentage_ConcurrentAppends(t *testing.T) {
	calc := newCalculator(config.Default(), 0.02)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				calc.CalculateRiskPercentage("BTCUSDT", "1h", types.RegimeQuiet, 0, nil)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, DefaultHistoryCapacity, calc.History().Len())
}
