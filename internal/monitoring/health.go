package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker reports whether market data and configuration are usable
type HealthChecker struct {
	mu             sync.RWMutex
	lastMarketData time.Time
	configLoaded   bool
	maxDataAge     time.Duration
	errors         []string
	now            func() time.Time
}

type HealthStatus struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	LastMarketData time.Time `json:"last_market_data"`
	ConfigLoaded   bool      `json:"config_loaded"`
	Uptime         string    `json:"uptime"`
	Errors         []string  `json:"errors,omitempty"`
}

// NewHealthChecker creates a checker that degrades when market data is older than maxDataAge
func NewHealthChecker(maxDataAge time.Duration) *HealthChecker {
	return &HealthChecker{
		maxDataAge: maxDataAge,
		errors:     make([]string, 0),
		now:        time.Now,
	}
}

// MarkMarketData records a successful market data fetch
func (h *HealthChecker) MarkMarketData(at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastMarketData = at
}

func (h *HealthChecker) MarkConfigLoaded() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.configLoaded = true
}

// ReportError keeps the last 10 errors
func (h *HealthChecker) ReportError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}

// Status returns the current health snapshot
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.now()
	status := "healthy"
	if !h.configLoaded || h.lastMarketData.IsZero() || now.Sub(h.lastMarketData) > h.maxDataAge {
		status = "degraded"
	}
	if len(h.errors) > 0 {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:         status,
		Timestamp:      now,
		LastMarketData: h.lastMarketData,
		ConfigLoaded:   h.configLoaded,
		Uptime:         now.Sub(startTime).Round(time.Second).String(),
		Errors:         append([]string(nil), h.errors...),
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Status()

	w.Header().Set("Content-Type", "application/json")
	switch health.Status {
	case "degraded":
		w.WriteHeader(http.StatusServiceUnavailable)
	case "unhealthy":
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(health)
}
