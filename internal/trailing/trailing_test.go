package trailing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

type stubATR struct {
	value float64
	ok    bool
	calls int
}

func (s *stubATR) ATR(symbol, timeframe string, period int) (float64, bool) {
	s.calls++
	return s.value, s.ok
}

func btcLong() Position {
	return Position{ID: "p1", Symbol: "BTCUSDT", Timeframe: "1h", Side: types.SideLong, EntryPrice: 50000}
}

func TestPercentage_LongLifecycle(t *testing.T) {
	e := NewEngine(nil, nil)
	s := e.InitializePosition(btcLong(), Percentage{ActivationPercent: 1.0, CallbackPercent: 0.5})
	assert.Equal(t, PhaseInactive, s.Phase())

	s = e.UpdateTrailingStop(s, 50400)
	assert.False(t, s.Activated)
	assert.False(t, s.StopSet)

	s = e.UpdateTrailingStop(s, 50500)
	require.True(t, s.Activated)
	assert.InDelta(t, 50247.5, s.StopPrice, 1e-6)

	s = e.UpdateTrailingStop(s, 50700)
	assert.InDelta(t, 50446.5, s.StopPrice, 1e-6)
	assert.Equal(t, 50700.0, s.BestPrice)

	s = e.UpdateTrailingStop(s, 50600)
	assert.InDelta(t, 50446.5, s.StopPrice, 1e-6, "stop never loosens")
	hit, _ := e.CheckStopCondition(s, 50600)
	assert.False(t, hit)

	s = e.UpdateTrailingStop(s, 50400)
	hit, reason := e.CheckStopCondition(s, 50400)
	assert.True(t, hit)
	assert.Equal(t, ReasonTrailingStop, reason)
}

func TestPercentage_Short(t *testing.T) {
	e := NewEngine(nil, nil)
	pos := Position{ID: "s1", Symbol: "ETHUSDT", Side: types.SideShort, EntryPrice: 100}
	s := e.InitializePosition(pos, Percentage{ActivationPercent: 2, CallbackPercent: 1})

	s = e.UpdateTrailingStop(s, 99)
	assert.False(t, s.Activated)

	s = e.UpdateTrailingStop(s, 98)
	require.True(t, s.Activated)
	assert.InDelta(t, 98.98, s.StopPrice, 1e-9)

	s = e.UpdateTrailingStop(s, 97)
	assert.InDelta(t, 97.97, s.StopPrice, 1e-9)

	s = e.UpdateTrailingStop(s, 97.5)
	assert.InDelta(t, 97.97, s.StopPrice, 1e-9)
	hit, _ := e.CheckStopCondition(s, 97.5)
	assert.False(t, hit)

	hit, reason := e.CheckStopCondition(e.UpdateTrailingStop(s, 98), 98)
	assert.True(t, hit)
	assert.Equal(t, ReasonTrailingStop, reason)
}

func TestUpdate_IgnoresBadPrices(t *testing.T) {
	e := NewEngine(nil, nil)
	s := e.InitializePosition(btcLong(), Percentage{ActivationPercent: 1, CallbackPercent: 0.5})
	s = e.UpdateTrailingStop(s, 51000)
	require.True(t, s.Activated)

	for _, p := range []float64{0, -1} {
		next := e.UpdateTrailingStop(s, p)
		assert.Equal(t, s.StopPrice, next.StopPrice)
		assert.Equal(t, s.BestPrice, next.BestPrice)
		hit, _ := e.CheckStopCondition(next, p)
		assert.False(t, hit)
	}
}

func TestInactiveStopNeverTriggers(t *testing.T) {
	e := NewEngine(nil, nil)
	s := e.InitializePosition(btcLong(), Percentage{ActivationPercent: 1, CallbackPercent: 0.5})
	s = e.UpdateTrailingStop(s, 40000)
	hit, _ := e.CheckStopCondition(s, 40000)
	assert.False(t, hit)
	assert.Equal(t, 50000.0, s.BestPrice)
}

func TestATR_Strategy(t *testing.T) {
	src := &stubATR{value: 50, ok: true}
	e := NewEngine(src, nil)
	pos := Position{ID: "a1", Symbol: "SOLUSDT", Timeframe: "4h", Side: types.SideLong, EntryPrice: 1000}
	s := e.InitializePosition(pos, ATR{Multiplier: 2, Period: 14})

	s = e.UpdateTrailingStop(s, 1050)
	assert.False(t, s.Activated)

	s = e.UpdateTrailingStop(s, 1100)
	require.True(t, s.Activated)
	assert.InDelta(t, 1000.0, s.StopPrice, 1e-9)

	s = e.UpdateTrailingStop(s, 1200)
	assert.InDelta(t, 1100.0, s.StopPrice, 1e-9)

	src.value = 80
	s = e.UpdateTrailingStop(s, 1200)
	assert.InDelta(t, 1100.0, s.StopPrice, 1e-9, "wider ATR must not loosen the stop")

	hit, _ := e.CheckStopCondition(s, 1100)
	assert.True(t, hit)
	assert.Greater(t, src.calls, 0)
}

func TestATR_Unavailable(t *testing.T) {
	src := &stubATR{}
	e := NewEngine(src, nil)

	s := e.InitializePosition(btcLong(), ATR{Multiplier: 2, Period: 14})
	s = e.UpdateTrailingStop(s, 60000)
	assert.False(t, s.Activated, "no ATR means no ATR-distance activation")

	s = e.InitializePosition(btcLong(), ATR{Multiplier: 2, Period: 14, ActivationPercent: 1})
	s = e.UpdateTrailingStop(s, 51000)
	assert.True(t, s.Activated)
	assert.False(t, s.StopSet)
	hit, _ := e.CheckStopCondition(s, 1)
	assert.False(t, hit)

	src.value, src.ok = 100, true
	s = e.UpdateTrailingStop(s, 51000)
	assert.True(t, s.StopSet)
	assert.InDelta(t, 50800.0, s.StopPrice, 1e-9)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("percentage", 1, 0.5)
	require.NoError(t, err)
	assert.Equal(t, Percentage{ActivationPercent: 1, CallbackPercent: 0.5}, s)

	s, err = ParseStrategy("ATR", 2, 14)
	require.NoError(t, err)
	assert.Equal(t, ATR{Multiplier: 2, Period: 14}, s)

	_, err = ParseStrategy("percentage", 1, 0)
	assert.Error(t, err)
	_, err = ParseStrategy("atr", 2, 0)
	assert.Error(t, err)
	_, err = ParseStrategy("chandelier", 1, 1)
	assert.Error(t, err)
}

func TestTracker(t *testing.T) {
	tr := NewTracker(NewEngine(nil, nil))
	strategy := Percentage{ActivationPercent: 1, CallbackPercent: 0.5}

	_, err := tr.Open(btcLong(), strategy)
	require.NoError(t, err)
	_, err = tr.Open(btcLong(), strategy)
	assert.Error(t, err, "duplicate id")
	_, err = tr.Open(Position{ID: "bad", EntryPrice: 0}, strategy)
	assert.Error(t, err)
	_, err = tr.Open(Position{ID: "bad", EntryPrice: 1}, Percentage{CallbackPercent: 0})
	assert.Error(t, err)

	short := Position{ID: "p2", Symbol: "ETHUSDT", Side: types.SideShort, EntryPrice: 100}
	_, err = tr.Open(short, strategy)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, tr.IDs())

	for _, p := range []float64{50400, 50500, 50700, 50600} {
		hit, _ := tr.OnPrice("p1", p)
		assert.False(t, hit)
	}
	assert.Equal(t, PhaseActive, tr.Phase("p1"))
	state, ok := tr.State("p1")
	require.True(t, ok)
	assert.InDelta(t, 50446.5, state.StopPrice, 1e-6)

	hit, reason := tr.OnPrice("p1", 50400)
	assert.True(t, hit)
	assert.Equal(t, ReasonTrailingStop, reason)
	assert.Equal(t, PhaseClosed, tr.Phase("p1"))

	hit, _ = tr.OnPrice("missing", 1)
	assert.False(t, hit)

	assert.True(t, tr.Close("p2"))
	assert.False(t, tr.Close("p2"))
	assert.Empty(t, tr.IDs())
}
