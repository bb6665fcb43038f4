package trend

import (
	"errors"

	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

var ErrInsufficientData = errors.New("insufficient data for trend calculation")

// EMA represents the Exponential Moving Average of closes
type EMA struct {
	period    int
	alpha     float64
	lastValue float64
}

// NewEMA creates a new EMA indicator
func NewEMA(period int) *EMA {
	if period <= 0 {
		period = 1
	}
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

// Calculate seeds with the SMA of the first period closes, then smooths
// forward over the rest of data.
func (e *EMA) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < e.period {
		return 0, ErrInsufficientData
	}

	sum := 0.0
	for i := 0; i < e.period; i++ {
		sum += data[i].Close
	}
	value := sum / float64(e.period)

	// EMA = Close*alpha + prev*(1-alpha)
	for i := e.period; i < len(data); i++ {
		value = data[i].Close*e.alpha + value*(1-e.alpha)
	}

	e.lastValue = value
	return value, nil
}

func (e *EMA) GetName() string {
	return "EMA"
}

func (e *EMA) GetRequiredPeriods() int {
	return e.period
}

func (e *EMA) GetLastValue() float64 {
	return e.lastValue
}
