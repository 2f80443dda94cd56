package model

import (
	"time"

	"github.com/google/uuid"
)

// RuleVerdict is the outcome of one criterion for one ticker.
type RuleVerdict struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Active bool   `json:"active"` // counted toward TotalCount
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// Evaluation aggregates the verdicts of a rule set.
type Evaluation struct {
	Verdicts    []RuleVerdict `json:"verdicts"`
	PassedCount int           `json:"passed_count"`
	TotalCount  int           `json:"total_count"`
	ScorePct    float64       `json:"score_pct"` // PassedCount/TotalCount, 0 when TotalCount is 0
	IsSignal    bool          `json:"is_signal"`
	Reasons     []string      `json:"reasons,omitempty"`
}

// ScanRecord is one ticker's full outcome within a scan run.
type ScanRecord struct {
	Symbol       string       `json:"symbol"`
	Name         string       `json:"name"`
	Sector       string       `json:"sector"`
	Price        float64      `json:"price"`
	Indicators   Indicators   `json:"indicators"`
	Fundamentals Fundamentals `json:"fundamentals"`
	FCFYield     *float64     `json:"fcf_yield,omitempty"` // percent
	EvaluatedAt  time.Time    `json:"evaluated_at"`
	Evaluation
}

// SkipKind classifies why a ticker produced no record.
type SkipKind string

const (
	SkipDataUnavailable SkipKind = "data_unavailable"
	SkipProviderError   SkipKind = "provider_error"
)

// SkipRecord notes a ticker that was dropped from the run.
type SkipRecord struct {
	Symbol string   `json:"symbol"`
	Kind   SkipKind `json:"kind"`
	Reason string   `json:"reason"`
}

// ScanResult is what a completed run hands to the reporter.
type ScanResult struct {
	RunID          uuid.UUID    `json:"run_id"`
	RuleSetVersion string       `json:"rule_set_version"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
	Universe       int          `json:"universe"`
	Ranked         []ScanRecord `json:"ranked"`
	Signals        []ScanRecord `json:"signals"`
	NearMisses     []ScanRecord `json:"near_misses"`
	Skipped        []SkipRecord `json:"skipped"`
}

// Scanned returns the number of tickers that produced a record.
func (r *ScanResult) Scanned() int { return len(r.Ranked) }

// Duration returns the wall time of the run.
func (r *ScanResult) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }
