package notifier

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/metrics"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

type fakeSink struct {
	name       string
	configured bool
	err        error

	calls   int
	subject string
	records []model.ScanRecord
}

func (f *fakeSink) Name() string     { return f.name }
func (f *fakeSink) Configured() bool { return f.configured }
func (f *fakeSink) Send(_ context.Context, subject string, records []model.ScanRecord) error {
	f.calls++
	f.subject, f.records = subject, records
	return f.err
}

func TestDispatch(t *testing.T) {
	ok := &fakeSink{name: "email", configured: true}
	off := &fakeSink{name: "telegram"}
	broken := &fakeSink{name: "webhook", configured: true, err: fmt.Errorf("%w: connection refused", ErrDelivery)}
	m := metrics.New(prometheus.NewRegistry())

	res := sampleResult()
	got := Dispatch(context.Background(), zap.NewNop(), m, "Buy the Dip Alert", res, ok, off, broken)

	require.Len(t, got, 3)
	assert.Equal(t, StatusSent, got[0].Status)
	assert.Equal(t, StatusNotConfigured, got[1].Status)
	assert.NoError(t, got[1].Err, "unconfigured sink is not an error")
	assert.Equal(t, StatusFailed, got[2].Status)
	assert.True(t, errors.Is(got[2].Err, ErrDelivery))

	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, "Buy the Dip Alert", ok.subject)
	assert.Equal(t, res.Signals, ok.records, "only signals are delivered")
	assert.Equal(t, 0, off.calls)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("email", StatusSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("webhook", StatusFailed)))
}

func TestDispatch_NothingSentWithoutSignals(t *testing.T) {
	sink := &fakeSink{name: "email", configured: true}
	res := sampleResult()
	res.Signals = nil

	got := Dispatch(context.Background(), zap.NewNop(), nil, "alert", res, sink)
	require.Len(t, got, 1)
	assert.Equal(t, StatusNoSignals, got[0].Status)
	assert.Equal(t, 0, sink.calls)
}

func TestDispatch_SinkReportingNotConfigured(t *testing.T) {
	sink := &fakeSink{name: "email", configured: true, err: ErrNotConfigured}
	got := Dispatch(context.Background(), zap.NewNop(), nil, "alert", sampleResult(), sink)
	assert.Equal(t, StatusNotConfigured, got[0].Status)
	assert.NoError(t, got[0].Err)
}
