package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordScan(t *testing.T) {
	m := New(prometheus.NewRegistry())
	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	res := &model.ScanResult{
		StartedAt:  start,
		FinishedAt: start.Add(12 * time.Second),
		Ranked:     make([]model.ScanRecord, 5),
		Signals:    make([]model.ScanRecord, 2),
		NearMisses: make([]model.ScanRecord, 1),
		Skipped: []model.SkipRecord{
			{Symbol: "XYZ", Kind: model.SkipDataUnavailable},
			{Symbol: "ABC", Kind: model.SkipProviderError},
			{Symbol: "DEF", Kind: model.SkipProviderError},
		},
	}

	m.RecordScan(res)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LastScanSignals))
	assert.Equal(t, float64(res.FinishedAt.Unix()), testutil.ToFloat64(m.LastScanTime))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.TickersTotal.WithLabelValues(OutcomeEvaluated)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TickersTotal.WithLabelValues(OutcomeSignal)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TickersTotal.WithLabelValues(OutcomeNearMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TickersTotal.WithLabelValues(OutcomeDataUnavailable)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TickersTotal.WithLabelValues(OutcomeProviderError)))
}

func TestRecordProviderCall(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordProviderCall("yahoo", "history", nil, 100*time.Millisecond)
	m.RecordProviderCall("yahoo", "history", errors.New("boom"), time.Second)
	m.RecordProviderRetry("yahoo", "history")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("yahoo", "history", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("yahoo", "history", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRetriesTotal.WithLabelValues("yahoo", "history")))
}

func TestCircuitBreakerAndCache(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SetCircuitBreakerState("yahoo.history", 2)
	m.RecordCircuitBreakerTrip("yahoo.history")
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)
	m.RecordNotification("email", "sent")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("yahoo.history")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CircuitBreakerTrips.WithLabelValues("yahoo.history")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("email", "sent")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordScan(&model.ScanResult{})
		m.RecordProviderCall("yahoo", "history", nil, time.Second)
		m.RecordProviderRetry("yahoo", "history")
		m.SetCircuitBreakerState("x", 1)
		m.RecordCircuitBreakerTrip("x")
		m.RecordCacheLookup(true)
		m.RecordNotification("telegram", "failed")
	})
}
