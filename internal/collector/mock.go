package collector

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without a fixture get a generated, gently rising series and empty fundamentals.
type MockFetcher struct {
	Price        float64
	History      map[string][]model.PricePoint
	Fundamentals map[string]*model.Fundamentals
	Errors       map[string]error // returned by both calls for the symbol
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(ctx context.Context, symbol string, days int) ([]model.PricePoint, error) {
	if err := m.lookupErr(ctx, symbol); err != nil {
		return nil, err
	}
	if pts, ok := m.History[symbol]; ok {
		if len(pts) == 0 {
			return nil, fmt.Errorf("%w: mock: no history for %s", model.ErrDataUnavailable, symbol)
		}
		if days > 0 && len(pts) > days {
			pts = pts[len(pts)-days:]
		}
		return pts, nil
	}
	base := m.Price
	if base == 0 {
		base = 100
	}
	return generateDipBars(base, days, 0.0005, 0, 0), nil
}

func (m *MockFetcher) FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	if err := m.lookupErr(ctx, symbol); err != nil {
		return nil, err
	}
	if f, ok := m.Fundamentals[symbol]; ok {
		cp := *f
		return &cp, nil
	}
	return &model.Fundamentals{Name: symbol}, nil
}

func (m *MockFetcher) lookupErr(ctx context.Context, symbol string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrProviderFailure, err)
	}
	if err, ok := m.Errors[symbol]; ok {
		return err
	}
	return nil
}

// generateDipBars builds count daily closes that compound at drift per day and
// then fall by dip per day over the last dipDays sessions.
func generateDipBars(basePrice float64, count int, drift float64, dipDays int, dip float64) []model.PricePoint {
	end := time.Date(2026, 1, 2, 21, 0, 0, 0, time.UTC)
	points := make([]model.PricePoint, count)
	p := basePrice
	for i := 0; i < count; i++ {
		if i >= count-dipDays {
			p *= 1 - dip
		} else {
			p *= 1 + drift
		}
		points[i] = model.PricePoint{
			Time:  end.AddDate(0, 0, -(count - 1 - i)),
			Close: math.Round(p*100) / 100,
		}
	}
	return points
}

// NewDemoFetcher returns fixtures for offline runs: a few healthy dips, a falling
// knife below its moving average, an expensive name, a bank without D/E and a
// ticker with no history.
func NewDemoFetcher() *MockFetcher {
	f := model.Float
	return &MockFetcher{
		Price: 100,
		History: map[string][]model.PricePoint{
			"JNJ":    generateDipBars(120, 400, 0.002, 8, 0.012),
			"PG":     generateDipBars(110, 400, 0.0025, 9, 0.011),
			"KO":     generateDipBars(50, 400, 0.0015, 7, 0.01),
			"JPM":    generateDipBars(90, 400, 0.003, 9, 0.013),
			"MSFT":   generateDipBars(200, 400, 0.003, 8, 0.012),
			"INTC":   generateDipBars(60, 400, -0.002, 10, 0.01),
			"NVDA":   generateDipBars(100, 400, 0.004, 3, 0.005),
			"DELIST": nil,
		},
		Fundamentals: map[string]*model.Fundamentals{
			"JNJ": {Name: "Johnson & Johnson", Sector: "Healthcare", TrailingPE: f(15.8), ForwardPE: f(14.9),
				PriceToBook: f(2.9), ReturnOnEquity: f(0.19), RevenueGrowth: f(0.04), DebtToEquity: f(45),
				MarketCap: f(380e9), FreeCashflow: f(18e9)},
			"PG": {Name: "Procter & Gamble", Sector: "Consumer Defensive", TrailingPE: f(24.1), ForwardPE: f(22.5),
				PriceToBook: f(7.8), ReturnOnEquity: f(0.31), RevenueGrowth: f(0.02), DebtToEquity: f(70),
				MarketCap: f(390e9), FreeCashflow: f(16e9)},
			"KO": {Name: "Coca-Cola", Sector: "Consumer Defensive", TrailingPE: f(22.4), ForwardPE: f(21.1),
				PriceToBook: f(2.95), ReturnOnEquity: f(0.39), RevenueGrowth: f(0.03), DebtToEquity: f(160),
				MarketCap: f(260e9), FreeCashflow: f(9.5e9)},
			"JPM": {Name: "JPMorgan Chase", Sector: "Financial Services", TrailingPE: f(11.2), ForwardPE: f(12.0),
				PriceToBook: f(1.8), ReturnOnEquity: f(0.16), RevenueGrowth: f(0.08), MarketCap: f(560e9)},
			"MSFT": {Name: "Microsoft", Sector: "Technology", TrailingPE: f(23.5), ForwardPE: f(21.0),
				PriceToBook: f(11.2), ReturnOnEquity: f(0.36), RevenueGrowth: f(0.15), DebtToEquity: f(35),
				MarketCap: f(3.1e12), FreeCashflow: f(70e9)},
			"INTC": {Name: "Intel", Sector: "Technology", TrailingPE: f(95), ForwardPE: f(18),
				PriceToBook: f(1.1), ReturnOnEquity: f(-0.01), RevenueGrowth: f(-0.06), DebtToEquity: f(48),
				MarketCap: f(95e9), FreeCashflow: f(-12e9)},
			"NVDA": {Name: "NVIDIA", Sector: "Technology", TrailingPE: f(55), ForwardPE: f(32),
				PriceToBook: f(40), ReturnOnEquity: f(1.2), RevenueGrowth: f(0.9), DebtToEquity: f(15),
				MarketCap: f(3.3e12), FreeCashflow: f(60e9)},
		},
		Errors: map[string]error{
			"TIMEOUT": fmt.Errorf("%w: mock: upstream timeout", model.ErrProviderFailure),
		},
	}
}

// DemoUniverse lists the symbols NewDemoFetcher has fixtures for, plus the error cases.
func DemoUniverse() []string {
	return strings.Fields("JNJ PG KO JPM MSFT INTC NVDA DELIST TIMEOUT")
}
