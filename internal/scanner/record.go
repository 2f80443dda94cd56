package scanner

import (
	"github.com/shopspring/decimal"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

var hundred = decimal.NewFromInt(100)

// FCFYield returns free cash flow over market cap in percent, or nil when either
// is missing or market cap is zero.
func FCFYield(f model.Fundamentals) *float64 {
	if f.FreeCashflow == nil || f.MarketCap == nil || *f.MarketCap == 0 {
		return nil
	}
	y := decimal.NewFromFloat(*f.FreeCashflow).
		Div(decimal.NewFromFloat(*f.MarketCap)).
		Mul(hundred).
		Round(4)
	v, _ := y.Float64()
	return &v
}
