// Package ingestion implements the Ingestion Worker of spec §4.3: claim
// the dispatched run, resolve its query targets, fan out each target
// across the configured provider adapters, filter/dedupe/rank the
// results through pkg/queryengine, and persist everything through
// internal/store with the ordering spec §4.3 requires for idempotent
// re-runs.
package ingestion

import (
	"time"

	"github.com/google/uuid"

	"github.com/claro-ops/media-intel/internal/store"
)

// DispatchMessage is the ingestion queue payload of spec §4.3:
// {runId?, triggerType, language?, maxArticlesPerTerm?, termIds?[],
// terms?[], requestId?, requestedAt?}.
type DispatchMessage struct {
	RunID              *uuid.UUID        `json:"runId,omitempty"`
	TriggerType        store.TriggerType `json:"triggerType"`
	Language           string            `json:"language,omitempty"`
	MaxArticlesPerTerm int               `json:"maxArticlesPerTerm,omitempty"`
	TermIDs            []uuid.UUID       `json:"termIds,omitempty"`
	Terms              []string          `json:"terms,omitempty"`
	RequestID          string            `json:"requestId,omitempty"`
	RequestedAt        *time.Time        `json:"requestedAt,omitempty"`
}

// SkipReason enumerates why a dispatch was not (re-)run.
type SkipReason string

const (
	SkipRunAlreadyCompleted SkipReason = "run_already_completed"
	SkipRunAlreadyRunning   SkipReason = "run_already_running"
	SkipNoProviders         SkipReason = "no_providers_selected"
)

// RunResult is what the worker returns to its caller (and, indirectly,
// what gets logged/metric-tagged by the entry point).
type RunResult struct {
	RunID           uuid.UUID
	Status          store.RunStatus
	Skipped         SkipReason
	ItemsByProvider map[string]ProviderOutcome
	PersistedTotal  int
}

// ProviderOutcome is the per-provider tally folded into
// store.IngestionRunItem at the end of a run.
type ProviderOutcome struct {
	FetchedCount   int
	PersistedCount int
	LatencyMs      int64
	Status         string
	ErrorMessage   string
}

// target is one resolved query the worker fans adapters out against.
type target struct {
	queryID           *uuid.UUID
	name              string
	language          string
	definition        store.Definition
	execution         store.ExecutionConfig
	maxArticlesPerRun int
}

func (t target) dedupeKey() string {
	if t.queryID != nil {
		return t.queryID.String()
	}
	return lower(t.name) + "::" + lower(t.language)
}
