package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/collector"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/metrics"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/strategy"
)

// State is the run-level state of a Scanner.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateComplete:
		return "complete"
	default:
		return "idle"
	}
}

// Options tunes a scan run.
type Options struct {
	Workers           int           // 1 scans sequentially
	TickerTimeout     time.Duration // 0 means no per-ticker deadline
	NearMissThreshold float64
}

// DefaultOptions are four workers, a 60s budget per ticker and an 80% near-miss bar.
var DefaultOptions = Options{Workers: 4, TickerTimeout: 60 * time.Second, NearMissThreshold: 0.8}

// Scanner runs the per-ticker pipeline over a universe. Runs are serialised.
type Scanner struct {
	collector *collector.Collector
	evaluator *strategy.Evaluator
	opts      Options
	log       *zap.Logger
	metrics   *metrics.Metrics

	runMu sync.Mutex
	state atomic.Int32
	now   func() time.Time
}

// New creates a Scanner. m may be nil.
func New(c *collector.Collector, e *strategy.Evaluator, opts Options, log *zap.Logger, m *metrics.Metrics) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Scanner{collector: c, evaluator: e, opts: opts, log: log, metrics: m, now: time.Now}
}

// State reports whether a run is in progress.
func (s *Scanner) State() State { return State(s.state.Load()) }

// RuleSetVersion is the version of the rule set the scanner evaluates with.
func (s *Scanner) RuleSetVersion() string { return s.evaluator.RuleSet().Version }

// outcome is what one ticker produces: exactly one of record or skip.
type outcome struct {
	record *model.ScanRecord
	skip   *model.SkipRecord
}

// Run scans every ticker and returns the ranked result. It never fails: problems
// with a ticker turn into a skip and the rest of the universe is still scanned.
func (s *Scanner) Run(ctx context.Context, universe []string) *model.ScanResult {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.state.Store(int32(StateScanning))
	defer s.state.Store(int32(StateComplete))

	res := &model.ScanResult{
		RunID:          uuid.New(),
		RuleSetVersion: s.RuleSetVersion(),
		StartedAt:      s.now(),
		Universe:       len(universe),
	}
	log := s.log.With(zap.String("run_id", res.RunID.String()))
	log.Info("scan started",
		zap.Int("universe", len(universe)),
		zap.Int("workers", s.opts.Workers),
		zap.String("rules", res.RuleSetVersion))

	outcomes := make([]outcome, len(universe))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(s.opts.Workers, max(len(universe), 1)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = s.scanTicker(ctx, log, universe[i])
			}
		}()
	}
	for i := range universe {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	records := make([]model.ScanRecord, 0, len(universe))
	for _, o := range outcomes {
		switch {
		case o.record != nil:
			records = append(records, *o.record)
		case o.skip != nil:
			res.Skipped = append(res.Skipped, *o.skip)
		}
	}

	res.Ranked = Rank(records)
	res.Signals, res.NearMisses = Partition(res.Ranked, s.opts.NearMissThreshold)
	res.FinishedAt = s.now()
	s.metrics.RecordScan(res)

	log.Info("scan complete",
		zap.Int("scanned", res.Scanned()),
		zap.Int("signals", len(res.Signals)),
		zap.Int("near_misses", len(res.NearMisses)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Duration("duration", res.Duration()))
	return res
}

// scanTicker runs Pending -> Fetched -> (Skipped | Evaluated) for one symbol.
func (s *Scanner) scanTicker(ctx context.Context, log *zap.Logger, symbol string) (out outcome) {
	log = log.With(zap.String("symbol", symbol))
	defer func() {
		if r := recover(); r != nil {
			log.Error("ticker panicked", zap.Any("panic", r), zap.Stack("stack"))
			out = outcome{skip: &model.SkipRecord{
				Symbol: symbol,
				Kind:   model.SkipProviderError,
				Reason: fmt.Sprintf("internal error: %v", r),
			}}
		}
	}()

	if s.opts.TickerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.TickerTimeout)
		defer cancel()
	}

	snap, err := s.collector.Collect(ctx, symbol)
	if err != nil {
		kind := model.SkipProviderError
		if errors.Is(err, model.ErrDataUnavailable) {
			kind = model.SkipDataUnavailable
		}
		log.Warn("ticker skipped", zap.String("kind", string(kind)), zap.Error(err))
		return outcome{skip: &model.SkipRecord{Symbol: symbol, Kind: kind, Reason: err.Error()}}
	}

	ev := s.evaluator.Evaluate(strategy.Input{
		Price:        snap.Price(),
		Indicators:   snap.Indicators,
		Fundamentals: snap.Fundamentals,
	})
	rec := &model.ScanRecord{
		Symbol:       symbol,
		Name:         snap.Fundamentals.Name,
		Sector:       snap.Fundamentals.Sector,
		Price:        snap.Price(),
		Indicators:   snap.Indicators,
		Fundamentals: snap.Fundamentals,
		FCFYield:     FCFYield(snap.Fundamentals),
		EvaluatedAt:  s.now(),
		Evaluation:   ev,
	}

	fields := []zap.Field{
		zap.Float64("rsi", rec.Indicators.RSI),
		zap.Int("passed", ev.PassedCount),
		zap.Int("total", ev.TotalCount),
	}
	if ev.IsSignal {
		log.Info("signal", fields...)
	} else {
		log.Debug("evaluated", append(fields, zap.Strings("reasons", ev.Reasons))...)
	}
	return outcome{record: rec}
}
