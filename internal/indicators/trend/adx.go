package trend

import (
	"math"

	"github.com/ducminhle1904/position-risk-engine/internal/indicators/base"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// ADX represents the Average Directional Index.
// It measures trend strength regardless of direction on a 0-100 scale;
// above 20 is usually read as trending.
type ADX struct {
	period  int
	plusDI  float64
	minusDI float64
	lastADX float64
}

// NewADX creates a new ADX indicator
func NewADX(period int) *ADX {
	if period <= 0 {
		period = 14
	}
	return &ADX{period: period}
}

// GetRequiredPeriods is two periods of DX plus the seed candle
func (a *ADX) GetRequiredPeriods() int {
	return a.period*2 + 1
}

// Calculate runs Wilder's smoothing over the whole series, oldest first
func (a *ADX) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < a.GetRequiredPeriods() {
		return 0, ErrInsufficientData
	}

	n := float64(a.period)
	var trSum, plusSum, minusSum, adx float64
	dxCount := 0

	for i := 1; i < len(data); i++ {
		tr := base.TrueRange(data[i], data[i-1].Close)
		plusDM, minusDM := directionalMovement(data[i], data[i-1])

		if i <= a.period {
			trSum += tr
			plusSum += plusDM
			minusSum += minusDM
			if i < a.period {
				continue
			}
		} else {
			trSum = trSum - trSum/n + tr
			plusSum = plusSum - plusSum/n + plusDM
			minusSum = minusSum - minusSum/n + minusDM
		}

		dx := a.dx(trSum, plusSum, minusSum)
		dxCount++
		switch {
		case dxCount < a.period:
			adx += dx
		case dxCount == a.period:
			adx = (adx + dx) / n
		default:
			adx = (adx*(n-1) + dx) / n
		}
	}

	a.lastADX = adx
	return adx, nil
}

func (a *ADX) dx(trSum, plusSum, minusSum float64) float64 {
	if trSum <= 0 {
		a.plusDI, a.minusDI = 0, 0
		return 0
	}
	a.plusDI = plusSum / trSum * 100
	a.minusDI = minusSum / trSum * 100
	diSum := a.plusDI + a.minusDI
	if diSum == 0 {
		return 0
	}
	return math.Abs(a.plusDI-a.minusDI) / diSum * 100
}

func directionalMovement(current, previous types.OHLCV) (plusDM, minusDM float64) {
	highDiff := current.High - previous.High
	lowDiff := previous.Low - current.Low

	if highDiff > lowDiff && highDiff > 0 {
		plusDM = highDiff
	}
	if lowDiff > highDiff && lowDiff > 0 {
		minusDM = lowDiff
	}
	return plusDM, minusDM
}

// GetDirectionalIndex returns the last +DI and -DI
func (a *ADX) GetDirectionalIndex() (plusDI, minusDI float64) {
	return a.plusDI, a.minusDI
}

func (a *ADX) GetName() string {
	return "ADX"
}

func (a *ADX) GetLastValue() float64 {
	return a.lastADX
}
