package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

func closes(values ...float64) []types.OHLCV {
	out := make([]types.OHLCV, len(values))
	for i, v := range values {
		out[i] = types.OHLCV{Open: v, High: v + 0.5, Low: v - 0.5, Close: v}
	}
	return out
}

func TestEMA(t *testing.T) {
	ema := NewEMA(3)
	_, err := ema.Calculate(closes(1, 2))
	assert.ErrorIs(t, err, ErrInsufficientData)

	// seed SMA(1,2,3)=2, alpha=0.5 walks one unit behind each close
	v, err := ema.Calculate(closes(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))
	require.NoError(t, err)
	assert.InDelta(t, 9.0, v, 1e-9)
	assert.InDelta(t, 9.0, ema.GetLastValue(), 1e-9)

	flat, err := NewEMA(5).Calculate(closes(7, 7, 7, 7, 7, 7, 7))
	require.NoError(t, err)
	assert.InDelta(t, 7.0, flat, 1e-9)
}

func TestADX(t *testing.T) {
	adx := NewADX(5)
	assert.Equal(t, 11, adx.GetRequiredPeriods())

	_, err := adx.Calculate(closes(1, 2, 3))
	assert.ErrorIs(t, err, ErrInsufficientData)

	up := make([]float64, 30)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	v, err := adx.Calculate(closes(up...))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, v, 1e-9)

	plus, minus := adx.GetDirectionalIndex()
	assert.Greater(t, plus, 0.0)
	assert.Equal(t, 0.0, minus)

	chop := make([]float64, 30)
	for i := range chop {
		chop[i] = 100 + float64(i%2)
	}
	v, err = NewADX(5).Calculate(closes(chop...))
	require.NoError(t, err)
	assert.Less(t, v, 20.0)
}
