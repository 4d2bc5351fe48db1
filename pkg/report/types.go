// Package report implements the Report Worker of spec §4.6: claim one
// report run, aggregate a 7-day window's KPIs/incidents/top content
// under the run's template, score a deterministic confidence, derive
// recommendations, fan export out to an async job, write the terminal
// result, and email verified recipients on completion.
package report

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// formulaVersion is persisted alongside every computed confidence so a
// later audit can tell which scoring rule produced it.
const formulaVersion = "report-v1-deterministic"

// DispatchMessage is the report queue payload of spec §4.6:
// {report_run_id (required), request_id?, requested_by_user_id?}.
type DispatchMessage struct {
	ReportRunID       uuid.UUID `json:"report_run_id"`
	RequestID         string    `json:"request_id,omitempty"`
	RequestedByUserID string    `json:"requested_by_user_id,omitempty"`
}

// ExportDispatchMessage is the export queue payload enqueued by step 7
// of spec §4.6, consumed by the (out of scope) export fulfillment path.
type ExportDispatchMessage struct {
	ExportJobID uuid.UUID       `json:"export_job_id"`
	Filters     json.RawMessage `json:"filters"`
}

// aggregate is the full window computation spec §4.6 steps 3-6 fold
// into a confidence score and a recommendation set.
type aggregate struct {
	scopeTotals             map[string]scopeTotals
	itemsTotal              int
	classifiedTotal         int
	previousItemsTotal      int
	previousClassifiedTotal int
	activeIncidents         int
	topContent              []topContentItem
	bhs                     float64
	riesgoActivo            float64
	sovClaro                float64
}

type scopeTotals struct {
	items      int
	classified int
	positives  int
	negatives  int
	neutrals   int
}

type topContentItem struct {
	ID          uuid.UUID
	Title       string
	Provider    string
	PublishedAt time.Time
	Sentimiento string
}
