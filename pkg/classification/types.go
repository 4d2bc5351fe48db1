// Package classification implements the Classification Scheduler and
// Worker of spec §4.4: the scheduler selects content items due for
// (re-)classification under the current prompt/model pair and enqueues
// one dispatch per item; the worker renders the prompt, invokes
// pkg/llm.Classifier, validates the result, and upserts it — without
// ever overwriting a manual analyst override.
package classification

import (
	"time"

	"github.com/google/uuid"

	"github.com/claro-ops/media-intel/internal/store"
)

// DispatchMessage is the classification queue payload of spec §4.4:
// {content_item_id, prompt_version, model_id, trigger_type, request_id?,
// requested_at?}.
type DispatchMessage struct {
	ContentItemID uuid.UUID         `json:"content_item_id"`
	PromptVersion string            `json:"prompt_version"`
	ModelID       string            `json:"model_id"`
	TriggerType   store.TriggerType `json:"trigger_type"`
	RequestID     string            `json:"request_id,omitempty"`
	RequestedAt   *time.Time        `json:"requested_at,omitempty"`
}

// Outcome reports what the worker did with one dispatched message.
type Outcome string

const (
	OutcomeClassified      Outcome = "classified"
	OutcomeSkippedOverride Outcome = "skipped_manual_override"
	OutcomeSkippedNotFound Outcome = "skipped_content_not_found"
)
