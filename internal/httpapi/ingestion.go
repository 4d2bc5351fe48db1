package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/ingestion"
)

// triggerIngestionRequest is spec §4.8's POST /ingestion/runs body.
type triggerIngestionRequest struct {
	Language           string   `json:"language" validate:"omitempty,bcp47_language_tag"`
	MaxArticlesPerTerm int      `json:"maxArticlesPerTerm" validate:"omitempty,min=1,max=2"`
	TermIDs            []string `json:"termIds" validate:"omitempty,dive,uuid"`
	Terms              []string `json:"terms" validate:"omitempty,dive,required"`
	RequestID          string   `json:"requestId"`
}

type triggerIngestionResponse struct {
	RunID string `json:"runId"`
}

// handleTriggerIngestion enqueues a manual ingestion dispatch and
// returns 202 with the run id the worker will claim, per spec §4.8.
func (s *Server) handleTriggerIngestion(w http.ResponseWriter, r *http.Request) {
	var req triggerIngestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewValidationError("invalid JSON body"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, apperrors.NewValidationError(err.Error()))
		return
	}

	termIDs := make([]uuid.UUID, 0, len(req.TermIDs))
	for _, raw := range req.TermIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, apperrors.NewValidationError("termIds must be valid UUIDs"))
			return
		}
		termIDs = append(termIDs, id)
	}

	runID := uuid.New()
	now := time.Now().UTC()
	msg := ingestion.DispatchMessage{
		RunID:              &runID,
		TriggerType:        store.TriggerManual,
		Language:           req.Language,
		MaxArticlesPerTerm: req.MaxArticlesPerTerm,
		TermIDs:            termIDs,
		Terms:              req.Terms,
		RequestID:          req.RequestID,
		RequestedAt:        &now,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		logAndWriteError(w, s.logger, "trigger_ingestion", apperrors.Wrap(err, apperrors.ErrorTypeInternal, "marshal dispatch message"))
		return
	}
	if err := s.ingestionQueue.Send(r.Context(), string(body)); err != nil {
		logAndWriteError(w, s.logger, "trigger_ingestion", apperrors.Wrap(err, apperrors.ErrorTypeInternal, "enqueue ingestion dispatch"))
		return
	}

	writeJSON(w, http.StatusAccepted, triggerIngestionResponse{RunID: runID.String()})
}
