package risk

import "sync"

// DrawdownTracker follows account equity and reports the current decline
// from the running peak, in percent.
type DrawdownTracker struct {
	mu          sync.Mutex
	peak        float64
	current     float64
	maxDrawdown float64
}

func NewDrawdownTracker() *DrawdownTracker {
	return &DrawdownTracker{}
}

// Update records a new equity value and returns the current drawdown percent
func (d *DrawdownTracker) Update(equity float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.current = equity
	if equity > d.peak {
		d.peak = equity
	}
	dd := d.drawdownLocked()
	if dd > d.maxDrawdown {
		d.maxDrawdown = dd
	}
	return dd
}

// Current returns the drawdown percent, or nil before any equity was seen.
// The pointer form feeds CalculateRiskPercentage directly.
func (d *DrawdownTracker) Current() *float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.peak <= 0 {
		return nil
	}
	dd := d.drawdownLocked()
	return &dd
}

// Max returns the deepest drawdown percent observed
func (d *DrawdownTracker) Max() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxDrawdown
}

func (d *DrawdownTracker) drawdownLocked() float64 {
	if d.peak <= 0 {
		return 0
	}
	return (d.peak - d.current) / d.peak * 100
}
