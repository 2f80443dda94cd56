package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/strategy"
)

// RulesConfig selects a preset and overrides parts of it.
type RulesConfig struct {
	Preset            string                `yaml:"preset"`
	PEField           string                `yaml:"pe_field"` // trailing or forward
	MinActiveRules    *int                  `yaml:"min_active_rules"`
	NearMissThreshold float64               `yaml:"near_miss_threshold"`
	Overrides         map[string]RuleConfig `yaml:"overrides"` // keyed by rule name
}

// RuleConfig overrides one rule. Nil fields keep the preset value.
type RuleConfig struct {
	Enabled       *bool     `yaml:"enabled"`
	Threshold     *float64  `yaml:"threshold"`
	AltThreshold  *float64  `yaml:"alt_threshold"` // revenue growth for quality_or_growth
	ExemptSectors *[]string `yaml:"exempt_sectors"`
}

// RuleSet builds the immutable rule set from the preset and overrides.
func (c *Config) RuleSet() (strategy.RuleSet, error) {
	o, err := c.Rules.options()
	if err != nil {
		return strategy.RuleSet{}, err
	}
	return strategy.Build(o), nil
}

func (r RulesConfig) options() (strategy.Options, error) {
	o, err := strategy.Preset(r.Preset)
	if err != nil {
		return o, fmt.Errorf("rules.preset: %w", err)
	}
	o.Disabled = cloneDisabled(o.Disabled)

	switch strategy.PEField(strings.ToLower(r.PEField)) {
	case "":
	case strategy.PETrailing:
		o.PEField = strategy.PETrailing
	case strategy.PEForward:
		o.PEField = strategy.PEForward
	default:
		return o, fmt.Errorf("rules.pe_field %q: want trailing or forward", r.PEField)
	}
	if r.MinActiveRules != nil {
		if *r.MinActiveRules < 0 {
			return o, fmt.Errorf("rules.min_active_rules must not be negative")
		}
		o.MinActiveRules = *r.MinActiveRules
	}

	names := make([]string, 0, len(r.Overrides))
	for name := range r.Overrides {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := applyOverride(&o, name, r.Overrides[name]); err != nil {
			return o, fmt.Errorf("rules.overrides.%s: %w", name, err)
		}
	}
	if len(r.Overrides) > 0 || r.PEField != "" || r.MinActiveRules != nil {
		o.Version += "+custom"
	}
	return o, nil
}

func applyOverride(o *strategy.Options, name string, rc RuleConfig) error {
	if !strategy.IsRuleName(name) {
		return fmt.Errorf("unknown rule (known: %v)", strategy.RuleNames())
	}
	if rc.Enabled != nil {
		o.Disabled[name] = !*rc.Enabled
	}

	if rc.Threshold != nil {
		switch name {
		case strategy.RuleRSIOversold:
			o.RSIOversold = *rc.Threshold
		case strategy.RuleValuationPE:
			o.MaxPE = *rc.Threshold
		case strategy.RuleAssetValuePB:
			o.MaxPB = *rc.Threshold
		case strategy.RuleQualityOrGrowth:
			o.MinROE = *rc.Threshold
		case strategy.RuleLeverageDE:
			o.MaxDebtToEquity = *rc.Threshold
		default:
			return fmt.Errorf("rule has no threshold")
		}
	}
	if rc.AltThreshold != nil {
		if name != strategy.RuleQualityOrGrowth {
			return fmt.Errorf("alt_threshold only applies to %s", strategy.RuleQualityOrGrowth)
		}
		o.MinRevenueGrowth = *rc.AltThreshold
	}

	if rc.ExemptSectors != nil {
		sectors := slices.Clone(*rc.ExemptSectors)
		switch name {
		case strategy.RuleAssetValuePB:
			o.PBExemptSectors = sectors
		case strategy.RuleLeverageDE:
			o.DEExemptSectors = sectors
		default:
			return fmt.Errorf("rule does not support sector exemptions")
		}
	}
	return nil
}

func cloneDisabled(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
