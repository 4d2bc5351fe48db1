package classification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/claro-ops/media-intel/internal/store"
)

// enqueuer is the slice of *internal/queue.Queue the scheduler needs,
// narrowed so tests can substitute a fake without a live SQS queue.
type enqueuer interface {
	Send(ctx context.Context, body string) error
}

// SchedulerTrigger is the scheduler's own trigger payload of spec
// §4.4: {triggerType, requestId?, requestedAt?}.
type SchedulerTrigger struct {
	TriggerType store.TriggerType
	RequestID   string
	RequestedAt *time.Time
}

// Scheduler selects content due for (re-)classification and enqueues
// one dispatch message per item.
type Scheduler struct {
	store         store.Store
	queue         enqueuer
	windowDays    int
	limit         int
	promptVersion string
	modelID       string
}

// NewScheduler builds a Scheduler from its dependencies.
func NewScheduler(s store.Store, q enqueuer, windowDays, limit int, promptVersion, modelID string) *Scheduler {
	return &Scheduler{store: s, queue: q, windowDays: windowDays, limit: limit, promptVersion: promptVersion, modelID: modelID}
}

// Run selects up to limit content items in the classification window
// that have no classification row under the current
// (promptVersion, modelId) pair, and enqueues one dispatch per item.
func (s *Scheduler) Run(ctx context.Context, trigger SchedulerTrigger) (int, error) {
	windowStart := time.Now().Add(-time.Duration(s.windowDays) * 24 * time.Hour)

	ids, err := s.store.ListActiveNewsForClassification(ctx, windowStart, s.promptVersion, s.modelID, s.limit)
	if err != nil {
		return 0, fmt.Errorf("classification: list pending content: %w", err)
	}

	for _, id := range ids {
		msg := DispatchMessage{
			ContentItemID: id,
			PromptVersion: s.promptVersion,
			ModelID:       s.modelID,
			TriggerType:   trigger.TriggerType,
			RequestID:     trigger.RequestID,
			RequestedAt:   trigger.RequestedAt,
		}
		body, err := json.Marshal(msg)
		if err != nil {
			return 0, fmt.Errorf("classification: marshal dispatch for %s: %w", id, err)
		}
		if err := s.queue.Send(ctx, string(body)); err != nil {
			return 0, fmt.Errorf("classification: enqueue %s: %w", id, err)
		}
	}

	return len(ids), nil
}
