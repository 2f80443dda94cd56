package metrics

import (
	"time"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dip_scanner"

// Ticker outcomes used as the "outcome" label.
const (
	OutcomeSignal          = "signal"
	OutcomeNearMiss        = "near_miss"
	OutcomeEvaluated       = "evaluated"
	OutcomeDataUnavailable = "data_unavailable"
	OutcomeProviderError   = "provider_error"
)

var durationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Metrics holds the Prometheus collectors of the scanner. All record methods are
// safe to call on a nil *Metrics, so components can run without instrumentation.
type Metrics struct {
	ScansTotal      prometheus.Counter
	ScanDuration    prometheus.Histogram
	LastScanSignals prometheus.Gauge
	LastScanTime    prometheus.Gauge
	TickersTotal    *prometheus.CounterVec

	ProviderRequestsTotal *prometheus.CounterVec
	ProviderDuration      *prometheus.HistogramVec
	ProviderRetriesTotal  *prometheus.CounterVec

	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec

	CacheLookupsTotal  *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
}

// New creates and registers all collectors on reg (the default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ScansTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of completed scan runs",
		}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Wall time of a scan run in seconds",
			Buckets:   durationBuckets,
		}),
		LastScanSignals: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "last_signals",
			Help:      "Number of signals found by the most recent scan",
		}),
		LastScanTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "last_completed_timestamp_seconds",
			Help:      "Unix time the most recent scan finished",
		}),
		TickersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "tickers_total",
			Help:      "Tickers processed, by outcome",
		}, []string{"outcome"}),

		ProviderRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Market data provider calls, by result",
		}, []string{"provider", "operation", "result"}),
		ProviderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "duration_seconds",
			Help:      "Duration of market data provider calls in seconds",
			Buckets:   durationBuckets,
		}, []string{"provider", "operation"}),
		ProviderRetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "retries_total",
			Help:      "Retried market data provider calls",
		}, []string{"provider", "operation"}),

		CircuitBreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "circuit_breaker",
			Name:      "state",
			Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
		}, []string{"breaker"}),
		CircuitBreakerTrips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "circuit_breaker",
			Name:      "trips_total",
			Help:      "Total number of circuit breaker trips",
		}, []string{"breaker"}),

		CacheLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Fundamentals cache lookups, by result",
		}, []string{"result"}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "deliveries_total",
			Help:      "Notification deliveries, by sink and result",
		}, []string{"sink", "result"}),
	}
}

// RecordScan records a finished scan run and its per-ticker outcomes.
func (m *Metrics) RecordScan(res *model.ScanResult) {
	if m == nil || res == nil {
		return
	}
	m.ScansTotal.Inc()
	m.ScanDuration.Observe(res.Duration().Seconds())
	m.LastScanSignals.Set(float64(len(res.Signals)))
	m.LastScanTime.Set(float64(res.FinishedAt.Unix()))

	m.TickersTotal.WithLabelValues(OutcomeSignal).Add(float64(len(res.Signals)))
	m.TickersTotal.WithLabelValues(OutcomeNearMiss).Add(float64(len(res.NearMisses)))
	m.TickersTotal.WithLabelValues(OutcomeEvaluated).Add(float64(len(res.Ranked)))
	for _, s := range res.Skipped {
		outcome := OutcomeProviderError
		if s.Kind == model.SkipDataUnavailable {
			outcome = OutcomeDataUnavailable
		}
		m.TickersTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordProviderCall records one provider call and how long it took.
func (m *Metrics) RecordProviderCall(provider, operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, operation, result).Inc()
	m.ProviderDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}

// RecordProviderRetry records a retried provider call.
func (m *Metrics) RecordProviderRetry(provider, operation string) {
	if m == nil {
		return
	}
	m.ProviderRetriesTotal.WithLabelValues(provider, operation).Inc()
}

// SetCircuitBreakerState sets the gauge of a breaker (0=closed, 1=half-open, 2=open).
func (m *Metrics) SetCircuitBreakerState(breaker string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(breaker).Set(float64(state))
}

// RecordCircuitBreakerTrip records a breaker opening.
func (m *Metrics) RecordCircuitBreakerTrip(breaker string) {
	if m == nil {
		return
	}
	m.CircuitBreakerTrips.WithLabelValues(breaker).Inc()
}

// RecordCacheLookup records a fundamentals cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordNotification records one delivery attempt to a sink.
func (m *Metrics) RecordNotification(sink, result string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(sink, result).Inc()
}
