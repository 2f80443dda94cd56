package notifier

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/strategy"
)

// table is the subset of *tablewriter.Table the reporter drives.
type table interface {
	Header(elements ...any)
	Append(rows ...any) error
	Render() error
}

// ConsoleReporter prints a run to a terminal.
type ConsoleReporter struct {
	out      io.Writer
	criteria []string
	peField  strategy.PEField
	verbose  bool
	newTable func(io.Writer) table
}

// NewConsoleReporter creates a reporter for runs evaluated with rules. The rule
// labels are shown in the banner and the P/E column shows the field the valuation
// rule read. verbose adds the full ranked table.
func NewConsoleReporter(out io.Writer, rules strategy.RuleSet, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{
		out:      out,
		criteria: rules.Labels(),
		peField:  rules.PEField,
		verbose:  verbose,
		newTable: func(w io.Writer) table { return tablewriter.NewWriter(w) },
	}
}

// Report renders header, criteria, signals, near misses and skips.
func (c *ConsoleReporter) Report(_ context.Context, res *model.ScanResult) error {
	line := strings.Repeat("=", 60)
	fmt.Fprintln(c.out, line)
	fmt.Fprintln(c.out, "Value Dip Scanner")
	fmt.Fprintf(c.out, "Scan Time: %s | Run: %s | Rules: %s\n",
		res.StartedAt.UTC().Format("2006-01-02 15:04 UTC"), res.RunID, res.RuleSetVersion)
	fmt.Fprintln(c.out, line)

	if len(c.criteria) > 0 {
		fmt.Fprintln(c.out, "\nCriteria:")
		for _, l := range c.criteria {
			fmt.Fprintf(c.out, "  - %s\n", l)
		}
	}

	fmt.Fprintf(c.out, "\nSUMMARY: %d signal(s), %d near miss(es) out of %d stocks (%d skipped) in %s\n",
		len(res.Signals), len(res.NearMisses), res.Universe, len(res.Skipped), res.Duration().Round(time.Millisecond))

	if len(res.Signals) > 0 {
		fmt.Fprintln(c.out, "\nSIGNALS TRIGGERED:")
		if err := c.recordTable(res.Signals, false); err != nil {
			return fmt.Errorf("render signal table: %w", err)
		}
	} else {
		fmt.Fprintln(c.out, "\nNo signals today. Waiting for better value opportunities.")
	}

	if len(res.NearMisses) > 0 {
		fmt.Fprintln(c.out, "\nNEAR MISSES:")
		if err := c.recordTable(res.NearMisses, true); err != nil {
			return fmt.Errorf("render near-miss table: %w", err)
		}
	}

	if c.verbose && len(res.Ranked) > 0 {
		fmt.Fprintln(c.out, "\nFULL RANKING:")
		if err := c.recordTable(res.Ranked, true); err != nil {
			return fmt.Errorf("render ranking table: %w", err)
		}
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintln(c.out, "\nSKIPPED:")
		tbl := c.newTable(c.out)
		tbl.Header("Symbol", "Kind", "Reason")
		for _, s := range res.Skipped {
			if err := tbl.Append(s.Symbol, string(s.Kind), truncate(s.Reason, 70)); err != nil {
				return fmt.Errorf("append skip row %s: %w", s.Symbol, err)
			}
		}
		if err := tbl.Render(); err != nil {
			return fmt.Errorf("render skip table: %w", err)
		}
	}

	fmt.Fprintf(c.out, "\n%s\n", disclaimer)
	return nil
}

func (c *ConsoleReporter) recordTable(records []model.ScanRecord, withReasons bool) error {
	tbl := c.newTable(c.out)
	header := []any{"#", "Symbol", "Sector", "Price", "RSI", peHeader(c.peField), "P/B", "ROE", "Growth", "D/E", "FCF Yld", "Score"}
	if withReasons {
		header = append(header, "Failed")
	}
	tbl.Header(header...)

	for i, r := range records {
		row := []any{
			fmt.Sprintf("%d", i+1),
			r.Symbol,
			orNA(r.Sector),
			fmt.Sprintf("%.2f", r.Price),
			fmt.Sprintf("%.1f", r.Indicators.RSI),
			ratio(c.peField.Of(r.Fundamentals)),
			ratio(r.Fundamentals.PriceToBook),
			fraction(r.Fundamentals.ReturnOnEquity),
			fraction(r.Fundamentals.RevenueGrowth),
			debtToEquity(r.Fundamentals.DebtToEquity),
			percent(r.FCFYield),
			fmt.Sprintf("%d/%d", r.PassedCount, r.TotalCount),
		}
		if withReasons {
			row = append(row, truncate(strings.Join(r.Reasons, "; "), 60))
		}
		if err := tbl.Append(row...); err != nil {
			return fmt.Errorf("append row %s: %w", r.Symbol, err)
		}
	}
	return tbl.Render()
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
