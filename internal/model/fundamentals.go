package model

// Fundamentals is a per-ticker snapshot as reported by the provider.
// A nil field means the provider did not supply it, which is not the same as zero.
type Fundamentals struct {
	Name           string   `json:"name"`
	Sector         string   `json:"sector"`
	TrailingPE     *float64 `json:"trailing_pe,omitempty"`
	ForwardPE      *float64 `json:"forward_pe,omitempty"`
	PriceToBook    *float64 `json:"price_to_book,omitempty"`
	ReturnOnEquity *float64 `json:"return_on_equity,omitempty"` // fraction, 0.15 = 15%
	RevenueGrowth  *float64 `json:"revenue_growth,omitempty"`   // fraction
	DebtToEquity   *float64 `json:"debt_to_equity,omitempty"`   // percent, 40 = 0.4x
	MarketCap      *float64 `json:"market_cap,omitempty"`
	FreeCashflow   *float64 `json:"free_cashflow,omitempty"`
}

// Float returns a pointer to v, for building fixtures and provider mappings.
func Float(v float64) *float64 { return &v }
