package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/strategy"
)

const disclaimer = "Disclaimer: This is not financial advice. Do your own research."

// CriteriaLabels returns the labels of the rules that were active for at least one
// record, in rule order.
func CriteriaLabels(records []model.ScanRecord) []string {
	var labels []string
	seen := map[string]bool{}
	for _, r := range records {
		for _, v := range r.Verdicts {
			if v.Active && !seen[v.Name] {
				seen[v.Name] = true
				labels = append(labels, v.Label)
			}
		}
	}
	return labels
}

// FormatEmailBody renders the plain-text alert sent by email.
func FormatEmailBody(records []model.ScanRecord, at time.Time) string {
	var b strings.Builder

	b.WriteString("Value Dip Scanner - Buy the Dip Alert\n")
	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "Scan Time: %s\n\n", at.UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "%d stock(s) triggered the value dip criteria:\n\n", len(records))

	if labels := CriteriaLabels(records); len(labels) > 0 {
		b.WriteString("Criteria:\n")
		for _, l := range labels {
			fmt.Fprintf(&b, "- %s\n", l)
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n")

	for _, r := range records {
		fmt.Fprintf(&b, "\n%s - %s\n", r.Symbol, r.Name)
		fmt.Fprintf(&b, "   Sector: %s\n", orNA(r.Sector))
		fmt.Fprintf(&b, "   Price: $%.2f\n\n", r.Price)
		b.WriteString("   Technical:\n")
		fmt.Fprintf(&b, "   - RSI(%d): %.2f\n", r.Indicators.RSIPeriod, r.Indicators.RSI)
		fmt.Fprintf(&b, "   - MA%d: %.2f%s\n", r.Indicators.MAWindow, r.Indicators.MovingAverage, degradedNote(r.Indicators))
		if r.Indicators.High52w > 0 {
			fmt.Fprintf(&b, "   - 52w Range: %.2f - %.2f (%.0f%% of range)\n",
				r.Indicators.Low52w, r.Indicators.High52w, r.Indicators.Position52w*100)
		}
		b.WriteString("\n")
		b.WriteString("   Value Metrics:\n")
		fmt.Fprintf(&b, "   - Trailing P/E: %s\n", ratio(r.Fundamentals.TrailingPE))
		fmt.Fprintf(&b, "   - Forward P/E: %s\n", ratio(r.Fundamentals.ForwardPE))
		fmt.Fprintf(&b, "   - Price/Book: %s\n", ratio(r.Fundamentals.PriceToBook))
		fmt.Fprintf(&b, "   - ROE: %s\n", fraction(r.Fundamentals.ReturnOnEquity))
		fmt.Fprintf(&b, "   - Revenue Growth: %s\n", fraction(r.Fundamentals.RevenueGrowth))
		fmt.Fprintf(&b, "   - Debt/Equity: %s\n", debtToEquity(r.Fundamentals.DebtToEquity))
		fmt.Fprintf(&b, "   - FCF Yield: %s\n", percent(r.FCFYield))
	}

	b.WriteString("\n---\n")
	b.WriteString(disclaimer + "\n")
	return b.String()
}

// FormatTelegram renders the alert as a Telegram HTML message. pe selects the P/E
// shown, which should be the one the valuation rule read.
func FormatTelegram(subject string, records []model.ScanRecord, pe strategy.PEField, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> | %s\n\n", html.EscapeString(subject), at.UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "%d signal(s):\n", len(records))
	for _, r := range records {
		fmt.Fprintf(&b, "\n<b>%s</b> %s @ $%.2f\n", html.EscapeString(r.Symbol), html.EscapeString(r.Name), r.Price)
		fmt.Fprintf(&b, "  RSI %.1f | %s %s | P/B %s\n",
			r.Indicators.RSI, peHeader(pe), ratio(pe.Of(r.Fundamentals)), ratio(r.Fundamentals.PriceToBook))
		fmt.Fprintf(&b, "  ROE %s | Growth %s | D/E %s\n",
			fraction(r.Fundamentals.ReturnOnEquity), fraction(r.Fundamentals.RevenueGrowth),
			debtToEquity(r.Fundamentals.DebtToEquity))
	}
	b.WriteString("\n<i>" + disclaimer + "</i>")
	return b.String()
}

// FormatScanSummary renders a short summary of a run, used for bot command replies.
func FormatScanSummary(res *model.ScanResult) string {
	if res == nil {
		return "No scan has completed yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Scan %s</b> | %s\n", res.RunID.String()[:8], res.FinishedAt.UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "Rules: %s\n", html.EscapeString(res.RuleSetVersion))
	fmt.Fprintf(&b, "Scanned %d/%d, skipped %d\n\n", res.Scanned(), res.Universe, len(res.Skipped))

	if len(res.Signals) == 0 {
		b.WriteString("No signals.\n")
	} else {
		b.WriteString("<b>Signals:</b>\n")
		for _, r := range res.Signals {
			fmt.Fprintf(&b, "  %s @ $%.2f (RSI %.1f)\n", html.EscapeString(r.Symbol), r.Price, r.Indicators.RSI)
		}
	}
	if len(res.NearMisses) > 0 {
		b.WriteString("<b>Near misses:</b>\n")
		for _, r := range res.NearMisses {
			fmt.Fprintf(&b, "  %s %d/%d (%s)\n", html.EscapeString(r.Symbol), r.PassedCount, r.TotalCount,
				html.EscapeString(strings.Join(r.Reasons, "; ")))
		}
	}
	return b.String()
}

func peHeader(f strategy.PEField) string {
	if f == strategy.PEForward {
		return "Fwd P/E"
	}
	return "P/E"
}

func degradedNote(ind model.Indicators) string {
	if ind.MADegraded {
		return " (short history)"
	}
	return ""
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func ratio(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

// fraction formats 0.153 as "15.3%".
func fraction(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

func percent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func debtToEquity(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.0f%%", *v)
}
