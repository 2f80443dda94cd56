package config

import "strings"

// Blue chips across the regions the scanner was first run against.
var (
	usLargeCaps = []string{
		"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "AVGO", "ORCL", "CRM", "ADBE",
		"INTC", "CSCO", "IBM", "QCOM", "TXN",
		"BRK-B", "JPM", "V", "MA", "BAC", "WFC", "GS", "MS", "BLK", "AXP",
		"JNJ", "UNH", "PFE", "ABBV", "MRK", "LLY", "TMO", "ABT", "AMGN", "MDT",
		"PG", "KO", "PEP", "COST", "WMT", "HD", "MCD", "NKE", "SBUX", "CL",
		"CAT", "DE", "UNP", "HON", "LMT", "MMM", "UPS",
		"XOM", "CVX", "COP", "DIS", "NFLX", "CMCSA", "T", "VZ",
	}
	europeLargeCaps = []string{
		"SAP.DE", "SIE.DE", "ALV.DE", "DTE.DE", "MBG.DE", "BMW.DE", "BAS.DE", "MUV2.DE",
		"MC.PA", "OR.PA", "TTE.PA", "SAN.PA", "AI.PA", "SU.PA",
		"SHEL.L", "AZN.L", "HSBA.L", "ULVR.L", "GSK.L", "DGE.L",
		"ASML.AS", "HEIA.AS", "NESN.SW", "NOVN.SW", "ROG.SW", "NOVO-B.CO",
	}
	asiaPacificLargeCaps = []string{
		"7203.T", "6758.T", "6861.T", "8306.T", "005930.KS", "0700.HK", "1211.HK",
		"BHP.AX", "CBA.AX", "CSL.AX",
	}
	canadaLargeCaps = []string{"RY.TO", "TD.TO", "ENB.TO", "CNR.TO", "SHOP.TO"}
)

// DefaultUniverse is the watchlist used when the config names none.
func DefaultUniverse() []string {
	var out []string
	for _, group := range [][]string{usLargeCaps, europeLargeCaps, asiaPacificLargeCaps, canadaLargeCaps} {
		out = append(out, group...)
	}
	return Dedupe(out)
}

// Dedupe upper-cases and trims symbols, drops blanks and keeps the first
// occurrence of each.
func Dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
