package portfolio

// LeverageCalculator reports the leverage a position implies
type LeverageCalculator interface {
	GetEffectiveLeverage(positionValue, margin float64) float64
}

// DefaultLeverageCalculator implements the LeverageCalculator interface
type DefaultLeverageCalculator struct{}

// NewLeverageCalculator creates a new leverage calculator
func NewLeverageCalculator() LeverageCalculator {
	return &DefaultLeverageCalculator{}
}

// GetEffectiveLeverage returns position value / margin, never below 1x.
// Sizing passes the account balance as margin, so a position smaller than
// the balance reports 1x.
func (c *DefaultLeverageCalculator) GetEffectiveLeverage(positionValue, margin float64) float64 {
	if margin <= 0 || positionValue <= margin {
		return 1.0
	}
	return positionValue / margin
}
