package trailing

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ducminhle1904/position-risk-engine/internal/monitoring"
)

// Tracker owns the trailing stop of every open position, keyed by position id.
// A triggered position is removed; the caller closes it on the exchange.
type Tracker struct {
	mu     sync.Mutex
	engine *Engine
	states map[string]State
}

func NewTracker(engine *Engine) *Tracker {
	return &Tracker{
		engine: engine,
		states: make(map[string]State),
	}
}

// Open starts tracking a position
func (t *Tracker) Open(pos Position, strategy Strategy) (State, error) {
	if pos.ID == "" {
		return State{}, fmt.Errorf("position id is required")
	}
	if pos.EntryPrice <= 0 {
		return State{}, fmt.Errorf("position %s: entry price must be positive", pos.ID)
	}
	if strategy == nil {
		return State{}, fmt.Errorf("position %s: strategy is required", pos.ID)
	}
	if err := strategy.Validate(); err != nil {
		return State{}, fmt.Errorf("position %s: %w", pos.ID, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.states[pos.ID]; exists {
		return State{}, fmt.Errorf("position %s is already tracked", pos.ID)
	}
	s := t.engine.InitializePosition(pos, strategy)
	t.states[pos.ID] = s
	return s, nil
}

// OnPrice applies a tick to one position and checks its stop. A triggered
// position is dropped from the tracker. Unknown ids report false.
func (t *Tracker) OnPrice(id string, price float64) (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[id]
	if !ok {
		return false, ""
	}

	s = t.engine.UpdateTrailingStop(s, price)
	triggered, reason := t.engine.CheckStopCondition(s, price)
	if triggered {
		delete(t.states, id)
		monitoring.RecordTrailingTrigger(s.Position.Symbol, s.Strategy.Name())
		t.engine.log.Info("%s %s trailing stop hit at %.8g (stop %.8g)",
			s.Position.Symbol, s.Position.Side, price, s.StopPrice)
		return true, reason
	}

	t.states[id] = s
	return false, ""
}

// Close stops tracking a position closed for any other reason
func (t *Tracker) Close(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.states[id]
	delete(t.states, id)
	return ok
}

// State returns a copy of a tracked position's state
func (t *Tracker) State(id string) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[id]
	return s, ok
}

// Phase returns the phase of id; untracked ids are reported as Closed
func (t *Tracker) Phase(id string) Phase {
	s, ok := t.State(id)
	if !ok {
		return PhaseClosed
	}
	return s.Phase()
}

// IDs returns the tracked position ids sorted
func (t *Tracker) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.states))
	for id := range t.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
