package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	barsProcessed    prometheus.Counter
	tradesSimulated  *prometheus.CounterVec
	jobsActive       prometheus.Gauge
	resultsSaved     *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vega_backtests_total",
			Help: "Total number of backtests",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vega_backtest_duration_seconds",
			Help:    "Backtest duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)
	r.barsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vega_bars_processed_total",
			Help: "Total number of bars replayed through simulations",
		},
	)
	r.tradesSimulated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vega_trades_simulated_total",
			Help: "Total number of simulated trades",
		},
		[]string{"strategy"},
	)
	r.jobsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vega_jobs_active",
			Help: "Number of backtest jobs currently running",
		},
	)
	r.resultsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vega_results_saved_total",
			Help: "Total number of result archives written",
		},
		[]string{"status"},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.barsProcessed)
	reg.MustRegister(r.tradesSimulated)
	reg.MustRegister(r.jobsActive)
	reg.MustRegister(r.resultsSaved)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordBars adds to the processed bar count.
func (r *Registry) RecordBars(count int) {
	r.barsProcessed.Add(float64(count))
}

// RecordTrades adds to a strategy's simulated trade count.
func (r *Registry) RecordTrades(strategy string, count int) {
	r.tradesSimulated.WithLabelValues(strategy).Add(float64(count))
}

// JobStarted increments the active job gauge.
func (r *Registry) JobStarted() {
	r.jobsActive.Inc()
}

// JobFinished decrements the active job gauge.
func (r *Registry) JobFinished() {
	r.jobsActive.Dec()
}

// RecordResultSaved records one archive write attempt.
func (r *Registry) RecordResultSaved(status string) {
	r.resultsSaved.WithLabelValues(status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
