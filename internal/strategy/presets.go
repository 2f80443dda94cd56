package strategy

import (
	"fmt"
	"slices"
	"sort"
)

const (
	PresetValueDip = "value-dip-v2"
	PresetBuffett  = "buffett-v1"
)

// DefaultOptions is the current value-dip rule set.
func DefaultOptions() Options {
	return Options{
		Version:          PresetValueDip,
		RSIOversold:      30,
		PEField:          PETrailing,
		MaxPE:            25,
		MaxPB:            3,
		MinROE:           0.10,
		MinRevenueGrowth: 0.05,
		MaxDebtToEquity:  100,
		PBExemptSectors:  []string{"Technology", "Communication Services"},
		DEExemptSectors:  []string{"Financial Services", "Financials"},
		Disabled:         map[string]bool{},
		MinActiveRules:   3,
	}
}

// buffettOptions reproduces the first scanner generation: forward P/E, no trend
// filter and no sector exemptions.
func buffettOptions() Options {
	o := DefaultOptions()
	o.Version = PresetBuffett
	o.PEField = PEForward
	o.PBExemptSectors = nil
	o.DEExemptSectors = nil
	o.Disabled = map[string]bool{RuleTrend: true}
	o.MinActiveRules = 0
	return o
}

var presets = map[string]func() Options{
	PresetValueDip: DefaultOptions,
	PresetBuffett:  buffettOptions,
}

// Preset returns the options of a named rule set version.
func Preset(name string) (Options, error) {
	if name == "" {
		return DefaultOptions(), nil
	}
	fn, ok := presets[name]
	if !ok {
		return Options{}, fmt.Errorf("unknown rule preset %q (known: %v)", name, PresetNames())
	}
	return fn(), nil
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RuleNames lists every rule name a rule set can contain.
func RuleNames() []string {
	return []string{RuleRSIOversold, RuleTrend, RuleValuationPE, RuleAssetValuePB, RuleQualityOrGrowth, RuleLeverageDE}
}

// IsRuleName reports whether name is a known rule.
func IsRuleName(name string) bool {
	return slices.Contains(RuleNames(), name)
}
