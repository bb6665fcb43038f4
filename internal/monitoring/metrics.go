package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Risk metrics
	riskPercentage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "risk_engine_risk_percentage",
			Help: "Last computed risk percentage per symbol",
		},
		[]string{"symbol", "timeframe"},
	)

	volatilityGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "risk_engine_volatility",
			Help: "Normalized volatility (ATR / close) used for the last risk calculation",
		},
		[]string{"symbol", "timeframe"},
	)

	// Sizing metrics
	positionSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "risk_engine_position_size_usd",
			Help:    "Distribution of computed position sizes in USD",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		},
		[]string{"symbol", "account"},
	)

	// Liquidity metrics
	liquidityRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_liquidity_rejections_total",
			Help: "Liquidity checks that failed, by reason",
		},
		[]string{"symbol", "reason"},
	)

	slippageGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "risk_engine_expected_slippage_percent",
			Help: "Expected slippage of the last liquidity check",
		},
		[]string{"symbol"},
	)

	// Trailing stop metrics
	trailingActivations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_trailing_activations_total",
			Help: "Trailing stops that moved from inactive to active",
		},
		[]string{"symbol", "strategy"},
	)

	trailingTriggers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_trailing_triggers_total",
			Help: "Trailing stops that triggered a close",
		},
		[]string{"symbol", "strategy"},
	)

	// Allocation metrics
	allocationPercent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "risk_engine_allocation_percent",
			Help: "Current capital allocation per symbol",
		},
		[]string{"symbol", "method"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(riskPercentage)
	prometheus.MustRegister(volatilityGauge)
	prometheus.MustRegister(positionSize)
	prometheus.MustRegister(liquidityRejections)
	prometheus.MustRegister(slippageGauge)
	prometheus.MustRegister(trailingActivations)
	prometheus.MustRegister(trailingTriggers)
	prometheus.MustRegister(allocationPercent)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordRiskPercentage records the outcome of a risk calculation
func RecordRiskPercentage(symbol, timeframe string, volatility, risk float64) {
	riskPercentage.WithLabelValues(symbol, timeframe).Set(risk)
	volatilityGauge.WithLabelValues(symbol, timeframe).Set(volatility)
}

// RecordPositionSize records a sizing result
func RecordPositionSize(symbol string, smallAccount bool, sizeUSD float64) {
	account := "standard"
	if smallAccount {
		account = "small"
	}
	positionSize.WithLabelValues(symbol, account).Observe(sizeUSD)
}

// RecordLiquidityRejection counts one failed liquidity check reason
func RecordLiquidityRejection(symbol, reason string) {
	liquidityRejections.WithLabelValues(symbol, reason).Inc()
}

// UpdateSlippage records the expected slippage of the last check
func UpdateSlippage(symbol string, slippage float64) {
	slippageGauge.WithLabelValues(symbol).Set(slippage)
}

func RecordTrailingActivation(symbol, strategy string) {
	trailingActivations.WithLabelValues(symbol, strategy).Inc()
}

func RecordTrailingTrigger(symbol, strategy string) {
	trailingTriggers.WithLabelValues(symbol, strategy).Inc()
}

// UpdateAllocation replaces the allocation gauge for every symbol in the map
func UpdateAllocation(method string, allocation map[string]float64) {
	allocationPercent.Reset()
	for symbol, pct := range allocation {
		allocationPercent.WithLabelValues(symbol, method).Set(pct)
	}
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
