package strategy

import (
	"fmt"
	"strings"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// Rule names, stable across rule set versions.
const (
	RuleRSIOversold     = "rsi_oversold"
	RuleTrend           = "trend"
	RuleValuationPE     = "valuation_pe"
	RuleAssetValuePB    = "asset_value_pb"
	RuleQualityOrGrowth = "quality_or_growth"
	RuleLeverageDE      = "leverage_de"
)

// MissingPolicy decides the verdict of an active rule whose input field is absent.
type MissingPolicy int

const (
	MissingFails MissingPolicy = iota
	MissingPasses
)

func (p MissingPolicy) String() string {
	if p == MissingPasses {
		return "pass"
	}
	return "fail"
}

// Input is everything a rule may inspect for one ticker.
type Input struct {
	Price        float64
	Indicators   model.Indicators
	Fundamentals model.Fundamentals
}

// CheckFunc evaluates a rule. present is false when the fields it needs are absent,
// in which case the rule's MissingPolicy decides and reason explains the gap.
type CheckFunc func(in Input) (passed, present bool, reason string)

// Rule is one named, toggleable, thresholded predicate.
type Rule struct {
	Name          string
	Label         string
	Enabled       bool
	ExemptSectors []string
	OnMissing     MissingPolicy
	Check         CheckFunc
}

// RuleSet is an immutable, versioned collection of rules.
type RuleSet struct {
	Version        string
	Rules          []Rule
	MinActiveRules int
	PEField        PEField // the P/E the valuation rule reads; reporters show the same one
}

// PEField selects which P/E the valuation rule reads.
type PEField string

const (
	PETrailing PEField = "trailing"
	PEForward  PEField = "forward"
)

// Of returns the selected P/E. The zero value selects trailing.
func (f PEField) Of(fund model.Fundamentals) *float64 {
	if f == PEForward {
		return fund.ForwardPE
	}
	return fund.TrailingPE
}

// Label is the short name used in rule labels and reports.
func (f PEField) Label() string {
	if f == PEForward {
		return "Forward"
	}
	return "Trailing"
}

// Options are the tunables a RuleSet is built from.
type Options struct {
	Version          string
	RSIOversold      float64
	PEField          PEField
	MaxPE            float64
	MaxPB            float64
	MinROE           float64 // fraction
	MinRevenueGrowth float64 // fraction
	MaxDebtToEquity  float64 // percent, as reported by the provider
	PBExemptSectors  []string
	DEExemptSectors  []string
	Disabled         map[string]bool
	MinActiveRules   int
}

// Build turns options into a rule table. Missing-data handling is declared here per rule:
// P/E, P/B and quality fail on absent data, leverage passes (many financials do not report D/E).
func Build(o Options) RuleSet {
	enabled := func(name string) bool { return !o.Disabled[name] }

	rules := []Rule{
		{
			Name:    RuleRSIOversold,
			Label:   fmt.Sprintf("RSI < %s", trimFloat(o.RSIOversold)),
			Enabled: enabled(RuleRSIOversold),
			Check: func(in Input) (bool, bool, string) {
				rsi := in.Indicators.RSI
				if rsi < o.RSIOversold {
					return true, true, ""
				}
				return false, true, fmt.Sprintf("RSI %.1f >= %.0f", rsi, o.RSIOversold)
			},
		},
		{
			Name:    RuleTrend,
			Label:   "Price > MA",
			Enabled: enabled(RuleTrend),
			Check: func(in Input) (bool, bool, string) {
				if in.Indicators.AboveMovingAverage {
					return true, true, ""
				}
				return false, true, fmt.Sprintf("Price %.2f <= MA%d %.2f",
					in.Price, in.Indicators.MAWindow, in.Indicators.MovingAverage)
			},
		},
		{
			Name:      RuleValuationPE,
			Label:     fmt.Sprintf("%s P/E <= %s", o.PEField.Label(), trimFloat(o.MaxPE)),
			Enabled:   enabled(RuleValuationPE),
			OnMissing: MissingFails,
			Check: func(in Input) (bool, bool, string) {
				pe := o.PEField.Of(in.Fundamentals)
				if pe == nil {
					return false, false, fmt.Sprintf("No %s P/E data", o.PEField.Label())
				}
				if *pe <= o.MaxPE {
					return true, true, ""
				}
				return false, true, fmt.Sprintf("P/E %.1f > %s", *pe, trimFloat(o.MaxPE))
			},
		},
		{
			Name:          RuleAssetValuePB,
			Label:         fmt.Sprintf("P/B <= %s", trimFloat(o.MaxPB)),
			Enabled:       enabled(RuleAssetValuePB),
			ExemptSectors: o.PBExemptSectors,
			OnMissing:     MissingFails,
			Check: func(in Input) (bool, bool, string) {
				pb := in.Fundamentals.PriceToBook
				if pb == nil {
					return false, false, "No P/B data"
				}
				if *pb <= o.MaxPB {
					return true, true, ""
				}
				return false, true, fmt.Sprintf("P/B %.1f > %s", *pb, trimFloat(o.MaxPB))
			},
		},
		{
			Name: RuleQualityOrGrowth,
			Label: fmt.Sprintf("ROE >= %.0f%% OR Revenue Growth >= %.0f%%",
				o.MinROE*100, o.MinRevenueGrowth*100),
			Enabled:   enabled(RuleQualityOrGrowth),
			OnMissing: MissingFails,
			Check: func(in Input) (bool, bool, string) {
				roe := in.Fundamentals.ReturnOnEquity
				growth := in.Fundamentals.RevenueGrowth
				if (roe != nil && *roe >= o.MinROE) || (growth != nil && *growth >= o.MinRevenueGrowth) {
					return true, true, ""
				}
				reason := fmt.Sprintf("ROE %s < %.0f%% AND Growth %s < %.0f%%",
					percent(roe), o.MinROE*100, percent(growth), o.MinRevenueGrowth*100)
				return false, roe != nil || growth != nil, reason
			},
		},
		{
			Name:          RuleLeverageDE,
			Label:         fmt.Sprintf("D/E <= %.0f%%", o.MaxDebtToEquity),
			Enabled:       enabled(RuleLeverageDE),
			ExemptSectors: o.DEExemptSectors,
			OnMissing:     MissingPasses,
			Check: func(in Input) (bool, bool, string) {
				de := in.Fundamentals.DebtToEquity
				if de == nil {
					return false, false, "No D/E data"
				}
				if *de <= o.MaxDebtToEquity {
					return true, true, ""
				}
				return false, true, fmt.Sprintf("D/E %.0f%% > %.0f%%", *de, o.MaxDebtToEquity)
			},
		},
	}

	return RuleSet{Version: o.Version, Rules: rules, MinActiveRules: o.MinActiveRules, PEField: o.PEField}
}

func percent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

func trimFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

// Labels lists the enabled rules for display, noting sector exemptions.
func (s RuleSet) Labels() []string {
	var out []string
	for _, r := range s.Rules {
		if !r.Enabled {
			continue
		}
		l := r.Label
		if len(r.ExemptSectors) > 0 {
			l += " (except " + strings.Join(r.ExemptSectors, ", ") + ")"
		}
		out = append(out, l)
	}
	return out
}
