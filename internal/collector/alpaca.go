package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// barsClient is the part of *marketdata.Client the fetcher uses.
type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaFetcher reads daily bars from the Alpaca market data API. Alpaca has no
// fundamentals endpoint, so it is paired with another provider in a CompositeFetcher.
type AlpacaFetcher struct {
	client barsClient
	now    func() time.Time
}

// NewAlpacaFetcher creates a fetcher backed by the Alpaca data API.
func NewAlpacaFetcher(apiKey, apiSecret string) *AlpacaFetcher {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})
	return &AlpacaFetcher{client: client, now: time.Now}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// FetchHistory requests enough calendar days to cover the wanted number of sessions.
func (f *AlpacaFetcher) FetchHistory(ctx context.Context, symbol string, days int) ([]model.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrProviderFailure, err)
	}

	end := f.now()
	// 252 sessions per 365 calendar days, plus slack for holidays.
	start := end.AddDate(0, 0, -(days*365/252 + 10))

	bars, err := f.client.GetBars(strings.ReplaceAll(strings.ToUpper(symbol), "-", "."), marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: alpaca bars for %s: %w", model.ErrProviderFailure, symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: alpaca: no bars for %s", model.ErrDataUnavailable, symbol)
	}

	points := make([]model.PricePoint, 0, len(bars))
	for _, bar := range bars {
		points = append(points, model.PricePoint{Time: bar.Timestamp.UTC(), Close: bar.Close})
	}
	if days > 0 && len(points) > days {
		points = points[len(points)-days:]
	}
	return points, nil
}
