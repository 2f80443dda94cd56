package collector

import (
	"context"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// HistoryFetcher returns daily closes, oldest first. days caps the number of
// observations returned. An empty result must be reported as model.ErrDataUnavailable.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, symbol string, days int) ([]model.PricePoint, error)
	Name() string
}

// FundamentalsFetcher returns a fundamentals snapshot. Fields the provider does not
// report are left nil.
type FundamentalsFetcher interface {
	FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error)
	Name() string
}

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	HistoryFetcher
	FundamentalsFetcher
}

// CompositeFetcher takes history and fundamentals from different providers.
type CompositeFetcher struct {
	History      HistoryFetcher
	Fundamentals FundamentalsFetcher
}

func NewCompositeFetcher(history HistoryFetcher, fundamentals FundamentalsFetcher) *CompositeFetcher {
	return &CompositeFetcher{History: history, Fundamentals: fundamentals}
}

func (c *CompositeFetcher) Name() string {
	if c.History.Name() == c.Fundamentals.Name() {
		return c.History.Name()
	}
	return c.History.Name() + "+" + c.Fundamentals.Name()
}

func (c *CompositeFetcher) FetchHistory(ctx context.Context, symbol string, days int) ([]model.PricePoint, error) {
	return c.History.FetchHistory(ctx, symbol, days)
}

func (c *CompositeFetcher) FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	return c.Fundamentals.FetchFundamentals(ctx, symbol)
}
