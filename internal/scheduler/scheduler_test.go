package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/notifier"
)

type fakeRunner struct {
	calls   atomic.Int32
	release chan struct{} // nil runs immediately
	signals []string
}

func (f *fakeRunner) Run(_ context.Context, universe []string) *model.ScanResult {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	res := &model.ScanResult{
		RunID:          uuid.New(),
		RuleSetVersion: "value-dip-v2",
		Universe:       len(universe),
		FinishedAt:     time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC),
	}
	for _, s := range f.signals {
		r := model.ScanRecord{Symbol: s, Price: 100, Indicators: model.Indicators{RSI: 25}}
		r.IsSignal, r.PassedCount, r.TotalCount, r.ScorePct = true, 6, 6, 1
		res.Ranked = append(res.Ranked, r)
		res.Signals = append(res.Signals, r)
	}
	return res
}

type fakeSink struct {
	mu    sync.Mutex
	sent  [][]string
	ready bool
}

func (f *fakeSink) Name() string     { return "fake" }
func (f *fakeSink) Configured() bool { return f.ready }
func (f *fakeSink) Send(_ context.Context, _ string, records []model.ScanRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var syms []string
	for _, r := range records {
		syms = append(syms, r.Symbol)
	}
	f.sent = append(f.sent, syms)
	return nil
}

type fakeReporter struct{ reports atomic.Int32 }

func (f *fakeReporter) Report(context.Context, *model.ScanResult) error {
	f.reports.Add(1)
	return nil
}

func newTestScheduler(r Runner, sinks ...notifier.Notifier) *Scheduler {
	return NewScheduler(context.Background(), r, []string{"JNJ", "KO"}, "Buy the Dip Alert", sinks, zap.NewNop(), nil)
}

func TestRunNow_StoresAndDispatches(t *testing.T) {
	sink := &fakeSink{ready: true}
	rep := &fakeReporter{}
	s := newTestScheduler(&fakeRunner{signals: []string{"JNJ"}}, sink)
	s.Reporters = []Reporter{rep}
	assert.Nil(t, s.Latest())

	res, ok := s.RunNow(context.Background())
	require.True(t, ok)
	assert.Same(t, res, s.Latest())
	assert.Equal(t, 2, res.Universe)
	assert.Equal(t, int32(1), rep.reports.Load())
	assert.Equal(t, [][]string{{"JNJ"}}, sink.sent)
	assert.False(t, s.Running())
}

func TestRunNow_NoSignalsSendsNothing(t *testing.T) {
	sink := &fakeSink{ready: true}
	s := newTestScheduler(&fakeRunner{}, sink)

	_, ok := s.RunNow(context.Background())
	require.True(t, ok)
	assert.Empty(t, sink.sent)
}

func TestRunNow_RejectsOverlap(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	s := newTestScheduler(runner)

	require.True(t, s.Trigger())
	require.Eventually(t, s.Running, time.Second, 5*time.Millisecond)

	_, ok := s.RunNow(context.Background())
	assert.False(t, ok)
	assert.False(t, s.Trigger())
	assert.Equal(t, "A scan is already running.", s.HandleCommand(context.Background(), "/scan"))

	close(runner.release)
	require.Eventually(t, func() bool { return s.Latest() != nil && !s.Running() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestHandleCommand(t *testing.T) {
	s := newTestScheduler(&fakeRunner{signals: []string{"JNJ", "MSFT"}})
	ctx := context.Background()

	assert.Equal(t, "No scan has completed yet.", s.HandleCommand(ctx, "/signals"))
	assert.Equal(t, helpText, s.HandleCommand(ctx, "/help"))
	assert.Equal(t, helpText, s.HandleCommand(ctx, "hello"))

	reply := s.HandleCommand(ctx, "/scan@dip_bot now")
	assert.Contains(t, reply, "Signals:")
	assert.Contains(t, reply, "JNJ @ $100.00")
	assert.Contains(t, reply, "MSFT")

	assert.Equal(t, reply, s.HandleCommand(ctx, "/SIGNALS"))
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(&fakeRunner{})
	assert.ErrorContains(t, s.Register("every day"), "register scan task")
	require.NoError(t, s.Register("0 30 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestScheduledScanRuns(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestScheduler(runner)
	require.NoError(t, s.Register("* * * * * *"))

	s.Start()
	require.Eventually(t, func() bool { return s.Latest() != nil }, 3*time.Second, 10*time.Millisecond)
	s.Stop()
	assert.GreaterOrEqual(t, runner.calls.Load(), int32(1))
}
