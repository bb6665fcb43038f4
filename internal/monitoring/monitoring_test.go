package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value reads a gauge or counter through the client model
func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Gauge != nil {
		return out.Gauge.GetValue()
	}
	return out.Counter.GetValue()
}

func count(c prometheus.Collector) int {
	ch := make(chan prometheus.Metric, 64)
	c.Collect(ch)
	close(ch)
	n := 0
	for range ch {
		n++
	}
	return n
}

func TestRecordRiskPercentage(t *testing.T) {
	RecordRiskPercentage("TESTUSDT", "1h", 0.04, 0.5)

	assert.Equal(t, 0.5, value(t, riskPercentage.WithLabelValues("TESTUSDT", "1h")))
	assert.Equal(t, 0.04, value(t, volatilityGauge.WithLabelValues("TESTUSDT", "1h")))
}

func TestCounters(t *testing.T) {
	before := value(t, liquidityRejections.WithLabelValues("TESTUSDT", "low_volume"))
	RecordLiquidityRejection("TESTUSDT", "low_volume")
	RecordLiquidityRejection("TESTUSDT", "low_volume")
	assert.Equal(t, before+2, value(t, liquidityRejections.WithLabelValues("TESTUSDT", "low_volume")))

	RecordTrailingActivation("TESTUSDT", "percentage")
	RecordTrailingTrigger("TESTUSDT", "percentage")
	assert.GreaterOrEqual(t, value(t, trailingActivations.WithLabelValues("TESTUSDT", "percentage")), 1.0)
	assert.GreaterOrEqual(t, value(t, trailingTriggers.WithLabelValues("TESTUSDT", "percentage")), 1.0)
}

func TestUpdateAllocationReplacesPreviousSymbols(t *testing.T) {
	UpdateAllocation("equal", map[string]float64{"A": 50, "B": 50})
	UpdateAllocation("equal", map[string]float64{"C": 100})

	assert.Equal(t, 1, count(allocationPercent))
	assert.Equal(t, 100.0, value(t, allocationPercent.WithLabelValues("C", "equal")))
}

func TestMetricsHandler(t *testing.T) {
	RecordPositionSize("TESTUSDT", false, 5000)

	rec := httptest.NewRecorder()
	NewMetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "risk_engine_position_size_usd"))
}

func TestHealthChecker(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	h := NewHealthChecker(time.Minute)
	h.now = func() time.Time { return now }

	assert.Equal(t, "degraded", h.Status().Status)

	h.MarkConfigLoaded()
	h.MarkMarketData(now.Add(-30 * time.Second))
	assert.Equal(t, "healthy", h.Status().Status)

	h.MarkMarketData(now.Add(-2 * time.Minute))
	assert.Equal(t, "degraded", h.Status().Status)

	h.MarkMarketData(now)
	h.ReportError("bybit: timeout")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, []string{"bybit: timeout"}, body.Errors)
}
