package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/calculator"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// Snapshot is everything collected for one ticker before evaluation.
type Snapshot struct {
	Series       model.PriceSeries
	Indicators   model.Indicators
	Fundamentals model.Fundamentals
}

// Price is the latest close.
func (s *Snapshot) Price() float64 { return s.Series.Last() }

// Collector orchestrates data fetching and indicator computation for one ticker.
type Collector struct {
	Fetcher     Fetcher
	HistoryDays int
	Params      calculator.Params
	log         *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, historyDays int, params calculator.Params, log *zap.Logger) *Collector {
	return &Collector{Fetcher: fetcher, HistoryDays: historyDays, Params: params, log: log}
}

// Collect fetches history, derives indicators and then fetches fundamentals.
// Every returned error wraps either model.ErrDataUnavailable or model.ErrProviderFailure.
// Fundamentals are not requested for a ticker whose history is unusable.
func (c *Collector) Collect(ctx context.Context, symbol string) (*Snapshot, error) {
	points, err := c.Fetcher.FetchHistory(ctx, symbol, c.HistoryDays)
	if err != nil {
		return nil, classify(fmt.Errorf("fetch history: %w", err))
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: empty price history", model.ErrDataUnavailable)
	}

	series := model.PriceSeries{Symbol: symbol, Points: points, FetchedAt: time.Now()}
	ind, err := calculator.Compute(series, c.Params)
	if errors.Is(err, calculator.ErrInsufficientData) {
		return nil, fmt.Errorf("%w: %d closes, RSI(%d) needs %d",
			model.ErrDataUnavailable, series.Len(), c.Params.RSIPeriod, c.Params.RSIPeriod)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: indicators: %w", model.ErrDataUnavailable, err)
	}
	if ind.MADegraded {
		c.log.Debug("moving average computed over short history",
			zap.String("symbol", symbol),
			zap.Int("closes", series.Len()),
			zap.Int("window", c.Params.MAWindow))
	}

	f, err := c.Fetcher.FetchFundamentals(ctx, symbol)
	if err != nil {
		return nil, classify(fmt.Errorf("fetch fundamentals: %w", err))
	}
	if f == nil {
		f = &model.Fundamentals{}
	}
	if f.Name == "" {
		f.Name = symbol
	}

	return &Snapshot{Series: series, Indicators: ind, Fundamentals: *f}, nil
}

// classify makes sure err carries one of the two provider sentinels; anything
// unrecognised (timeouts, transport errors) is a provider failure.
func classify(err error) error {
	if errors.Is(err, model.ErrDataUnavailable) || errors.Is(err, model.ErrProviderFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrProviderFailure, err)
}
