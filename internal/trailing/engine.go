package trailing

import (
	"time"

	"github.com/ducminhle1904/position-risk-engine/internal/logger"
	"github.com/ducminhle1904/position-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

// ReasonTrailingStop is reported when the stop is crossed
const ReasonTrailingStop = "trailing_stop"

// Phase of a trailing stop. There is no way back from Active to Inactive.
type Phase int

const (
	PhaseInactive Phase = iota
	PhaseActive
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseClosed:
		return "closed"
	default:
		return "inactive"
	}
}

// Position identifies the open position a trailing stop protects
type Position struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Timeframe  string     `json:"timeframe"`
	Side       types.Side `json:"side"`
	EntryPrice float64    `json:"entry_price"`
}

// State is the trailing stop of one position. It is a value; updates
// return a new State.
type State struct {
	Position  Position `json:"position"`
	Strategy  Strategy `json:"-"`
	Activated bool     `json:"activated"`

	// StopPrice is meaningful only when StopSet is true
	StopPrice float64 `json:"stop_price"`
	StopSet   bool    `json:"stop_set"`

	// BestPrice is the most favorable price seen: highest for a long,
	// lowest for a short
	BestPrice float64   `json:"best_price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Phase returns Inactive or Active
func (s State) Phase() Phase {
	if s.Activated {
		return PhaseActive
	}
	return PhaseInactive
}

// FavorableMove is the excursion from entry to BestPrice in price units
func (s State) FavorableMove() float64 {
	if s.Position.Side.IsLong() {
		return s.BestPrice - s.Position.EntryPrice
	}
	return s.Position.EntryPrice - s.BestPrice
}

// FavorableMovePercent is FavorableMove relative to the entry, in percent
func (s State) FavorableMovePercent() float64 {
	if s.Position.EntryPrice <= 0 {
		return 0
	}
	return s.FavorableMove() / s.Position.EntryPrice * 100
}

// tightens reports whether candidate moves the stop in the position's favor
func (s State) tightens(candidate float64) bool {
	if !s.StopSet {
		return true
	}
	if s.Position.Side.IsLong() {
		return candidate > s.StopPrice
	}
	return candidate < s.StopPrice
}

// ATRSource returns a fresh ATR for symbol/timeframe/period
type ATRSource interface {
	ATR(symbol, timeframe string, period int) (float64, bool)
}

// Engine is the state machine driver shared by every strategy
type Engine struct {
	atr ATRSource
	log *logger.Logger
	now func() time.Time
}

// NewEngine creates a driver. atr may be nil when only percentage stops are used.
func NewEngine(atr ATRSource, log *logger.Logger) *Engine {
	return &Engine{
		atr: atr,
		log: logger.OrNop(log).With("component", "trailing_stop"),
		now: time.Now,
	}
}

// InitializePosition returns the Inactive state for a new position
func (e *Engine) InitializePosition(pos Position, strategy Strategy) State {
	if pos.Side == "" {
		pos.Side = types.SideLong
	}
	return State{
		Position:  pos,
		Strategy:  strategy,
		BestPrice: pos.EntryPrice,
		UpdatedAt: e.now(),
	}
}

// UpdateTrailingStop applies one price tick. Ticks for a position must
// arrive in time order. Non-positive prices are ignored.
func (e *Engine) UpdateTrailingStop(s State, price float64) State {
	if price <= 0 || s.Strategy == nil {
		return s
	}

	if s.Position.Side.IsLong() {
		if price > s.BestPrice {
			s.BestPrice = price
		}
	} else if price < s.BestPrice || s.BestPrice <= 0 {
		s.BestPrice = price
	}
	s.UpdatedAt = e.now()

	atr, atrOK := e.readATR(s)

	if !s.Activated {
		if !s.Strategy.ShouldActivate(s, atr, atrOK) {
			return s
		}
		s.Activated = true
		monitoring.RecordTrailingActivation(s.Position.Symbol, s.Strategy.Name())
		e.log.Info("%s %s trailing stop activated at %.8g (move %.4f%%)",
			s.Position.Symbol, s.Position.Side, price, s.FavorableMovePercent())
	}

	candidate, ok := s.Strategy.StopPrice(s, atr, atrOK)
	if !ok {
		e.log.Warning("%s ATR unavailable, trailing stop left at %.8g", s.Position.Symbol, s.StopPrice)
		return s
	}
	if s.tightens(candidate) {
		s.StopPrice = candidate
		s.StopSet = true
	}
	return s
}

// CheckStopCondition reports whether price has crossed an active stop
func (e *Engine) CheckStopCondition(s State, price float64) (bool, string) {
	if !s.Activated || !s.StopSet || price <= 0 {
		return false, ""
	}
	if s.Position.Side.IsLong() && price <= s.StopPrice {
		return true, ReasonTrailingStop
	}
	if !s.Position.Side.IsLong() && price >= s.StopPrice {
		return true, ReasonTrailingStop
	}
	return false, ""
}

func (e *Engine) readATR(s State) (float64, bool) {
	period, needs := s.Strategy.NeedsATR()
	if !needs || e.atr == nil {
		return 0, false
	}
	return e.atr.ATR(s.Position.Symbol, s.Position.Timeframe, period)
}
