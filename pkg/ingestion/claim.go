package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claro-ops/media-intel/internal/store"
)

// claimRun implements spec §4.3's claim/dedupe rule. The actual
// completed/stale-running decision lives in store.ClaimIngestionRun
// (it must run inside the same transaction as the row it reads); this
// wrapper only builds the candidate run and, on a claim miss,
// classifies why for the caller's logging/metrics.
func claimRun(ctx context.Context, s store.Store, msg DispatchMessage) (*store.IngestionRun, SkipReason, error) {
	run := &store.IngestionRun{
		TriggerType: msg.TriggerType,
		Status:      store.RunStatusRunning,
		Language:    msg.Language,
		RequestID:   msg.RequestID,
		StartedAt:   time.Now().UTC(),
	}
	if msg.RunID != nil {
		run.ID = *msg.RunID
	} else {
		// No caller-supplied idempotency id: this dispatch can never be
		// a retry of a prior one, so it always gets a fresh run.
		run.ID = uuid.New()
	}

	claimed, err := s.ClaimIngestionRun(ctx, run)
	if err != nil {
		return nil, "", fmt.Errorf("ingestion: claim run: %w", err)
	}
	if claimed {
		return run, "", nil
	}

	existing, err := s.GetIngestionRun(ctx, run.ID)
	if err != nil {
		return nil, "", fmt.Errorf("ingestion: load run after claim miss: %w", err)
	}
	if existing.Status == store.RunStatusCompleted {
		return existing, SkipRunAlreadyCompleted, nil
	}
	return existing, SkipRunAlreadyRunning, nil
}
