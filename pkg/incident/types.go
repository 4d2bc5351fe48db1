// Package incident implements the Incident Evaluator of spec §4.5: scan
// the 7-day active-news window, weight each classified item by source
// credibility, aggregate risk per taxonomy scope, and drive each
// scope's single active incident through its state machine (create,
// escalate, dedupe within cooldown, refresh past cooldown).
package incident

import (
	"github.com/claro-ops/media-intel/internal/store"
)

// scopeSignal is the per-scope accumulator spec §4.5 folds every
// classified item into before the severity/risk computation.
type scopeSignal struct {
	classifiedWeight float64
	negativeWeight   float64
	positives        int
	negatives        int
	neutrals         int
	unknown          int
}

// severityFor maps a riskWeighted score to spec §4.5's thresholds:
// >=80 SEV1, >=60 SEV2, >=40 SEV3, else SEV4.
func severityFor(riskWeighted float64) store.IncidentSeverity {
	switch {
	case riskWeighted >= 80:
		return store.SeveritySEV1
	case riskWeighted >= 60:
		return store.SeveritySEV2
	case riskWeighted >= 40:
		return store.SeveritySEV3
	default:
		return store.SeveritySEV4
	}
}

// slaMinutesFor maps a severity to its response SLA duration in minutes.
func slaMinutesFor(sev store.IncidentSeverity) int {
	switch sev {
	case store.SeveritySEV1:
		return 30
	case store.SeveritySEV2:
		return 4 * 60
	default:
		return 24 * 60
	}
}

// Outcome reports what the state machine did for one scope.
type Outcome string

const (
	OutcomeCreated    Outcome = "created"
	OutcomeEscalated  Outcome = "escalated"
	OutcomeDeduped    Outcome = "deduped"
	OutcomeRefreshed  Outcome = "refreshed"
	OutcomeSkippedSev Outcome = "skipped_sev4"
)

// RunMetrics is the JSON blob persisted on the IncidentEvaluationRun,
// per spec §4.5's "write metrics" requirement.
type RunMetrics struct {
	CreatedCount     int                     `json:"created_count"`
	EscalatedCount   int                     `json:"escalated_count"`
	DedupedCount     int                     `json:"deduped_count"`
	SkippedSEV4Count int                     `json:"skipped_sev4_count"`
	CooldownMinutes  int                     `json:"cooldownMinutes"`
	SignalVersion    string                  `json:"signalVersion"`
	PerScope         map[string]ScopeMetrics `json:"perScope"`
}

// ScopeMetrics is the per-scope signal snapshot folded into RunMetrics.
type ScopeMetrics struct {
	RiskWeighted     float64 `json:"riskWeighted"`
	ClassifiedWeight float64 `json:"classifiedWeight"`
	NegativeWeight   float64 `json:"negativeWeight"`
	Positives        int     `json:"positives"`
	Negatives        int     `json:"negatives"`
	Neutrals         int     `json:"neutrals"`
	Unknown          int     `json:"unknown"`
	Outcome          Outcome `json:"outcome"`
}

// clampCooldown enforces spec §4.5's [1, 1440] minute clamp.
func clampCooldown(minutes int) int {
	if minutes < 1 {
		return 1
	}
	if minutes > 1440 {
		return 1440
	}
	return minutes
}
