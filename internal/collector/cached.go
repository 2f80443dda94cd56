package collector

import (
	"context"

	"go.uber.org/zap"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/cache"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/metrics"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// CachedFetcher serves fundamentals from a cache and only asks the provider on a miss.
// Cache failures degrade to a provider call; they never fail the ticker.
type CachedFetcher struct {
	inner   Fetcher
	cache   cache.Cache
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewCachedFetcher(inner Fetcher, c cache.Cache, log *zap.Logger, m *metrics.Metrics) *CachedFetcher {
	return &CachedFetcher{inner: inner, cache: c, log: log, metrics: m}
}

func (f *CachedFetcher) Name() string { return f.inner.Name() }

func (f *CachedFetcher) FetchHistory(ctx context.Context, symbol string, days int) ([]model.PricePoint, error) {
	return f.inner.FetchHistory(ctx, symbol, days)
}

func (f *CachedFetcher) FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	cached, ok, err := f.cache.GetFundamentals(ctx, symbol)
	if err != nil {
		f.log.Warn("fundamentals cache read failed", zap.String("symbol", symbol), zap.Error(err))
	}
	f.metrics.RecordCacheLookup(ok)
	if ok {
		return cached, nil
	}

	fresh, err := f.inner.FetchFundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := f.cache.PutFundamentals(ctx, symbol, fresh); err != nil {
		f.log.Warn("fundamentals cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return fresh, nil
}
