package trailing

import (
	"fmt"
	"strings"
)

// activationEpsilon lets a move of exactly activation_percent activate the stop
// despite float rounding in the percent computation
const activationEpsilon = 1e-9

// Strategy decides when a trailing stop activates and where the stop sits.
// Implementations are values; the Engine drives the shared state machine.
type Strategy interface {
	Name() string
	Validate() error

	// ShouldActivate reports whether the favorable excursion warrants activation.
	// atr is 0 with atrOK false when no ATR is available.
	ShouldActivate(s State, atr float64, atrOK bool) bool

	// StopPrice returns the candidate stop for the current best price
	StopPrice(s State, atr float64, atrOK bool) (float64, bool)

	// NeedsATR reports whether the strategy reads ATR, and for which period
	NeedsATR() (int, bool)
}

// Percentage trails the best price by a fixed callback percent after the
// price has moved ActivationPercent in the position's favor
type Percentage struct {
	ActivationPercent float64 `json:"activation_percent"`
	CallbackPercent   float64 `json:"callback_percent"`
}

func (p Percentage) Name() string { return "percentage" }

func (p Percentage) Validate() error {
	if p.ActivationPercent < 0 {
		return fmt.Errorf("activation_percent must be non-negative, got %.4f", p.ActivationPercent)
	}
	if p.CallbackPercent <= 0 || p.CallbackPercent >= 100 {
		return fmt.Errorf("callback_percent must be within (0, 100), got %.4f", p.CallbackPercent)
	}
	return nil
}

func (p Percentage) ShouldActivate(s State, _ float64, _ bool) bool {
	return s.FavorableMovePercent()+activationEpsilon >= p.ActivationPercent
}

func (p Percentage) StopPrice(s State, _ float64, _ bool) (float64, bool) {
	if s.Position.Side.IsLong() {
		return s.BestPrice * (1 - p.CallbackPercent/100), true
	}
	return s.BestPrice * (1 + p.CallbackPercent/100), true
}

func (p Percentage) NeedsATR() (int, bool) { return 0, false }

// ATR trails the best price by Multiplier x ATR. Without an
// ActivationPercent it activates once the favorable move exceeds that same
// distance.
type ATR struct {
	Multiplier        float64 `json:"atr_multiplier"`
	Period            int     `json:"atr_period"`
	ActivationPercent float64 `json:"activation_percent,omitempty"`
}

func (a ATR) Name() string { return "atr" }

func (a ATR) Validate() error {
	if a.Multiplier <= 0 {
		return fmt.Errorf("atr_multiplier must be positive, got %.4f", a.Multiplier)
	}
	if a.Period <= 0 {
		return fmt.Errorf("atr_period must be positive, got %d", a.Period)
	}
	if a.ActivationPercent < 0 {
		return fmt.Errorf("activation_percent must be non-negative, got %.4f", a.ActivationPercent)
	}
	return nil
}

func (a ATR) ShouldActivate(s State, atr float64, atrOK bool) bool {
	if a.ActivationPercent > 0 {
		return s.FavorableMovePercent()+activationEpsilon >= a.ActivationPercent
	}
	if !atrOK || atr <= 0 {
		return false
	}
	return s.FavorableMove()+activationEpsilon >= a.Multiplier*atr
}

func (a ATR) StopPrice(s State, atr float64, atrOK bool) (float64, bool) {
	if !atrOK || atr <= 0 {
		return 0, false
	}
	offset := a.Multiplier * atr
	if s.Position.Side.IsLong() {
		return s.BestPrice - offset, true
	}
	return s.BestPrice + offset, true
}

func (a ATR) NeedsATR() (int, bool) { return a.Period, true }

// ParseStrategy builds a strategy from its name. For "percentage" the
// params are activation and callback percent; for "atr" multiplier and period.
func ParseStrategy(name string, first, second float64) (Strategy, error) {
	var s Strategy
	switch strings.ToLower(name) {
	case "percentage", "percent", "pct":
		s = Percentage{ActivationPercent: first, CallbackPercent: second}
	case "atr":
		s = ATR{Multiplier: first, Period: int(second)}
	default:
		return nil, fmt.Errorf("unknown trailing stop strategy %q", name)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
