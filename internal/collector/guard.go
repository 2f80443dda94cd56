package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/metrics"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// GuardConfig tunes the protection wrapped around a provider.
type GuardConfig struct {
	RatePerSecond float64 // <= 0 disables rate limiting
	Burst         int
	MaxRetries    int
	BaseBackoff   time.Duration

	BreakerMaxRequests uint32        // max requests allowed in half-open state
	BreakerInterval    time.Duration // cyclic period of the closed state to clear counts
	BreakerTimeout     time.Duration // period of the open state before transitioning to half-open
}

// DefaultGuardConfig suits Yahoo's unauthenticated endpoints.
var DefaultGuardConfig = GuardConfig{
	RatePerSecond:      2,
	Burst:              4,
	MaxRetries:         2,
	BaseBackoff:        500 * time.Millisecond,
	BreakerMaxRequests: 3,
	BreakerInterval:    time.Minute,
	BreakerTimeout:     30 * time.Second,
}

const (
	opHistory      = "history"
	opFundamentals = "fundamentals"
)

// GuardedFetcher shares one rate limiter across all workers and keeps a circuit
// breaker per provider operation. Transient provider failures are retried with
// exponential backoff; missing data is never retried and never trips a breaker.
type GuardedFetcher struct {
	inner   Fetcher
	cfg     GuardConfig
	limiter *rate.Limiter
	history *gobreaker.CircuitBreaker[any]
	funda   *gobreaker.CircuitBreaker[any]
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewGuardedFetcher wraps inner. m may be nil.
func NewGuardedFetcher(inner Fetcher, cfg GuardConfig, log *zap.Logger, m *metrics.Metrics) *GuardedFetcher {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	g := &GuardedFetcher{
		inner:   inner,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
		metrics: m,
	}
	g.history = g.newBreaker(inner.Name() + "." + opHistory)
	g.funda = g.newBreaker(inner.Name() + "." + opFundamentals)
	return g
}

func (g *GuardedFetcher) newBreaker(name string) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: g.cfg.BreakerMaxRequests,
		Interval:    g.cfg.BreakerInterval,
		Timeout:     g.cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip the breaker if failure ratio exceeds 50% with at least 5 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			g.log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			g.metrics.SetCircuitBreakerState(name, stateToInt(to))
			if to == gobreaker.StateOpen {
				g.metrics.RecordCircuitBreakerTrip(name)
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, model.ErrDataUnavailable)
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	})
}

func (g *GuardedFetcher) Name() string { return g.inner.Name() }

func (g *GuardedFetcher) FetchHistory(ctx context.Context, symbol string, days int) ([]model.PricePoint, error) {
	return guarded(ctx, g, g.history, opHistory, symbol, func(ctx context.Context) ([]model.PricePoint, error) {
		return g.inner.FetchHistory(ctx, symbol, days)
	})
}

func (g *GuardedFetcher) FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	return guarded(ctx, g, g.funda, opFundamentals, symbol, func(ctx context.Context) (*model.Fundamentals, error) {
		return g.inner.FetchFundamentals(ctx, symbol)
	})
}

func guarded[T any](ctx context.Context, g *GuardedFetcher, cb *gobreaker.CircuitBreaker[any], op, symbol string,
	fn func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := g.cfg.BaseBackoff * time.Duration(1<<uint(attempt-1))
			g.metrics.RecordProviderRetry(g.inner.Name(), op)
			g.log.Warn("provider call failed, retrying",
				zap.String("provider", g.inner.Name()),
				zap.String("operation", op),
				zap.String("symbol", symbol),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("%w: %w", model.ErrProviderFailure, ctx.Err())
			case <-time.After(backoff):
			}
		}

		if err := g.limiter.Wait(ctx); err != nil {
			return zero, fmt.Errorf("%w: rate limiter: %w", model.ErrProviderFailure, err)
		}

		start := time.Now()
		res, err := cb.Execute(func() (any, error) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return fn(ctx)
		})
		g.metrics.RecordProviderCall(g.inner.Name(), op, err, time.Since(start))

		if err == nil {
			return res.(T), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %s unavailable: %w", model.ErrProviderFailure, cb.Name(), err)
		}
		if !retryable(ctx, err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, fmt.Errorf("%s %s: %d attempts failed: %w", g.inner.Name(), op, g.cfg.MaxRetries+1, lastErr)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, model.ErrDataUnavailable) && !errors.Is(err, context.Canceled)
}

// stateToInt converts a circuit breaker state to an integer for metrics
// 0=closed, 1=half-open, 2=open
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
