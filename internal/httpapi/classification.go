package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/classification"
)

// triggerClassificationRequest is spec §4.8's POST /classification/runs
// body: a manual trigger always runs synchronously.
type triggerClassificationRequest struct {
	RequestID string `json:"requestId"`
}

type triggerClassificationResponse struct {
	Enqueued int `json:"enqueued"`
}

// handleTriggerClassification runs the scheduler pass synchronously for
// a manual trigger and returns 202 with how many items it enqueued, per
// spec §4.8.
func (s *Server) handleTriggerClassification(w http.ResponseWriter, r *http.Request) {
	var req triggerClassificationRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.NewValidationError("invalid JSON body"))
			return
		}
	}

	now := time.Now().UTC()
	enqueued, err := s.classificationSched.Run(r.Context(), classification.SchedulerTrigger{
		TriggerType: store.TriggerManual,
		RequestID:   req.RequestID,
		RequestedAt: &now,
	})
	if err != nil {
		logAndWriteError(w, s.logger, "trigger_classification", apperrors.Wrap(err, apperrors.ErrorTypeInternal, "run classification scheduler"))
		return
	}

	writeJSON(w, http.StatusAccepted, triggerClassificationResponse{Enqueued: enqueued})
}
