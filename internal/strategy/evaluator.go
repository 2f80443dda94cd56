package strategy

import (
	"fmt"
	"strings"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// Evaluator applies a RuleSet to one ticker at a time. It holds no mutable state
// and is safe for concurrent use.
type Evaluator struct {
	set RuleSet
}

// NewEvaluator copies the rule set so later changes by the caller cannot leak in.
func NewEvaluator(set RuleSet) *Evaluator {
	rules := make([]Rule, len(set.Rules))
	for i, r := range set.Rules {
		r.ExemptSectors = append([]string(nil), r.ExemptSectors...)
		rules[i] = r
	}
	set.Rules = rules
	return &Evaluator{set: set}
}

// RuleSet returns the rule set the evaluator was built with.
func (e *Evaluator) RuleSet() RuleSet { return e.set }

// Evaluate runs every rule against the input and aggregates the verdicts.
// Disabled and sector-exempt rules are reported inactive and count toward neither total.
func (e *Evaluator) Evaluate(in Input) model.Evaluation {
	ev := model.Evaluation{Verdicts: make([]model.RuleVerdict, 0, len(e.set.Rules))}
	sector := in.Fundamentals.Sector

	for _, r := range e.set.Rules {
		v := model.RuleVerdict{Name: r.Name, Label: r.Label}
		switch {
		case !r.Enabled:
			v.Reason = "disabled"
		case sectorExempt(sector, r.ExemptSectors):
			v.Reason = fmt.Sprintf("not applied to %s sector", sector)
		default:
			v.Active = true
			ev.TotalCount++
			passed, present, reason := r.Check(in)
			if !present {
				passed = r.OnMissing == MissingPasses
			}
			v.Passed = passed
			if passed {
				ev.PassedCount++
			} else {
				v.Reason = reason
				ev.Reasons = append(ev.Reasons, reason)
			}
		}
		ev.Verdicts = append(ev.Verdicts, v)
	}

	if ev.TotalCount > 0 {
		ev.ScorePct = float64(ev.PassedCount) / float64(ev.TotalCount)
	}

	// A rule set with no active rules never signals, whatever the configured floor.
	floor := max(e.set.MinActiveRules, 1)
	if ev.TotalCount < floor {
		ev.Reasons = append(ev.Reasons,
			fmt.Sprintf("only %d active rules, need at least %d", ev.TotalCount, floor))
	}
	ev.IsSignal = ev.PassedCount == ev.TotalCount && ev.TotalCount >= floor
	return ev
}

func sectorExempt(sector string, exempt []string) bool {
	s := strings.TrimSpace(sector)
	if s == "" {
		return false
	}
	for _, x := range exempt {
		if strings.EqualFold(s, strings.TrimSpace(x)) {
			return true
		}
	}
	return false
}
