package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/metrics"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/notifier"
)

// Runner performs one scan over a universe.
type Runner interface {
	Run(ctx context.Context, universe []string) *model.ScanResult
}

// Reporter renders a finished scan, e.g. to the console.
type Reporter interface {
	Report(ctx context.Context, res *model.ScanResult) error
}

// Scheduler runs scans on a cron schedule and on demand, keeps the latest result
// in memory and dispatches signals after every run.
type Scheduler struct {
	Cron      *cron.Cron
	Runner    Runner
	Universe  []string
	Subject   string
	Sinks     []notifier.Notifier
	Reporters []Reporter
	Ctx       context.Context

	log     *zap.Logger
	metrics *metrics.Metrics
	running atomic.Bool

	mu     sync.RWMutex
	latest *model.ScanResult
}

// NewScheduler creates a new Scheduler. Cron jobs run with ctx. m may be nil.
func NewScheduler(ctx context.Context, r Runner, universe []string, subject string, sinks []notifier.Notifier,
	log *zap.Logger, m *metrics.Metrics) *Scheduler {
	clog := cronLogger{log.Sugar()}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLogger(clog), cron.WithChain(cron.Recover(clog))),
		Runner:   r,
		Universe: universe,
		Subject:  subject,
		Sinks:    sinks,
		Ctx:      ctx,
		log:      log,
		metrics:  m,
	}
}

// Register adds the recurring scan. spec is a six-field cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.scheduledScan); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Latest returns the most recent completed scan, or nil before the first one.
func (s *Scheduler) Latest() *model.ScanResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Running reports whether a scan is in progress.
func (s *Scheduler) Running() bool { return s.running.Load() }

// RunNow scans immediately and returns the result. ok is false, and nothing runs,
// when another scan is already in progress.
func (s *Scheduler) RunNow(ctx context.Context) (res *model.ScanResult, ok bool) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, false
	}
	defer s.running.Store(false)

	res = s.Runner.Run(ctx, s.Universe)
	s.mu.Lock()
	s.latest = res
	s.mu.Unlock()

	for _, r := range s.Reporters {
		if err := r.Report(ctx, res); err != nil {
			s.log.Error("report failed", zap.Error(err))
		}
	}
	notifier.Dispatch(ctx, s.log, s.metrics, s.Subject, res, s.Sinks...)
	return res, true
}

// Trigger starts a scan in the background. It returns false when one is already running.
func (s *Scheduler) Trigger() bool {
	if s.Running() {
		return false
	}
	go func() {
		if _, ok := s.RunNow(s.Ctx); !ok {
			s.log.Info("manual scan skipped, another scan is running")
		}
	}()
	return true
}

func (s *Scheduler) scheduledScan() {
	s.log.Info("running scheduled scan")
	if _, ok := s.RunNow(s.Ctx); !ok {
		s.log.Warn("scheduled scan skipped, previous scan still running")
	}
}

const helpText = "Available commands:\n" +
	"/scan - run a scan now\n" +
	"/signals - show the latest result\n" +
	"/help - show this message"

// HandleCommand processes a bot command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	cmd, _, _ := strings.Cut(strings.TrimSpace(command), " ")
	cmd, _, _ = strings.Cut(cmd, "@") // /scan@MyBot in group chats
	switch strings.ToLower(cmd) {
	case "/scan":
		res, ok := s.RunNow(ctx)
		if !ok {
			return "A scan is already running."
		}
		return notifier.FormatScanSummary(res)
	case "/signals", "/latest":
		return notifier.FormatScanSummary(s.Latest())
	default:
		return helpText
	}
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
