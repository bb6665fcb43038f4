package base

import (
	"errors"
	"math"

	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

const (
	// DefaultATRPeriod is the lookback used when none is configured
	DefaultATRPeriod = 14

	// DefaultVolatility is returned when there is not enough history to measure volatility
	DefaultVolatility = 0.02
)

// ErrInsufficientData is returned when fewer than period+1 candles are available
var ErrInsufficientData = errors.New("insufficient data points for ATR calculation")

// ATR represents the Average True Range technical indicator.
// The value is the simple average of the last `period` true ranges.
type ATR struct {
	period    int
	lastValue float64
}

// NewATR creates a new ATR indicator
func NewATR(period int) *ATR {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	return &ATR{period: period}
}

// Calculate calculates the ATR value over data, oldest candle first
func (a *ATR) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < a.GetRequiredPeriods() {
		return 0, ErrInsufficientData
	}

	sum := 0.0
	for i := len(data) - a.period; i < len(data); i++ {
		sum += TrueRange(data[i], data[i-1].Close)
	}

	a.lastValue = sum / float64(a.period)
	return a.lastValue, nil
}

// TrueRange = max(High-Low, |High-PrevClose|, |Low-PrevClose|)
func TrueRange(current types.OHLCV, prevClose float64) float64 {
	hl := current.High - current.Low
	hc := math.Abs(current.High - prevClose)
	lc := math.Abs(current.Low - prevClose)

	return math.Max(hl, math.Max(hc, lc))
}

// GetName returns the indicator name
func (a *ATR) GetName() string {
	return "ATR"
}

// GetRequiredPeriods returns the minimum number of candles needed.
// The first candle only provides the previous close.
func (a *ATR) GetRequiredPeriods() int {
	return a.period + 1
}

// GetLastValue returns the last calculated ATR value
func (a *ATR) GetLastValue() float64 {
	return a.lastValue
}

// GetPeriod returns the period used for ATR calculation
func (a *ATR) GetPeriod() int {
	return a.period
}

// NormalizedVolatility returns ATR / last close. It never fails: with fewer
// than period+1 candles or a non-positive last close, DefaultVolatility is
// returned instead.
func NormalizedVolatility(data []types.OHLCV, period int) float64 {
	atr := NewATR(period)
	value, err := atr.Calculate(data)
	if err != nil {
		return DefaultVolatility
	}

	lastClose := data[len(data)-1].Close
	if lastClose <= 0 {
		return DefaultVolatility
	}
	return value / lastClose
}
