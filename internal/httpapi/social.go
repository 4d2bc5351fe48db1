package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/pkg/social"
)

type triggerSocialIngestRequest struct {
	RequestID string `json:"requestId"`
}

type triggerSocialIngestResponse struct {
	ChannelID string `json:"channelId"`
}

// handleTriggerSocialIngest dispatches a social sweep for one channel,
// per spec §4.8. The channel's existence is checked here so a typo'd id
// 404s synchronously rather than failing silently inside the worker.
func (s *Server) handleTriggerSocialIngest(w http.ResponseWriter, r *http.Request) {
	channelID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewValidationError("id must be a valid UUID"))
		return
	}

	if _, err := s.store.GetSocialChannel(r.Context(), channelID); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			writeError(w, apperrors.NewNotFoundError("social channel"))
			return
		}
		logAndWriteError(w, s.logger, "trigger_social_ingest", err)
		return
	}

	var req triggerSocialIngestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.NewValidationError("invalid JSON body"))
			return
		}
	}

	now := time.Now().UTC()
	body, err := json.Marshal(social.DispatchMessage{
		ChannelID:   channelID,
		RequestID:   req.RequestID,
		RequestedAt: &now,
	})
	if err != nil {
		logAndWriteError(w, s.logger, "trigger_social_ingest", apperrors.Wrap(err, apperrors.ErrorTypeInternal, "marshal dispatch message"))
		return
	}
	if err := s.socialQueue.Send(r.Context(), string(body)); err != nil {
		logAndWriteError(w, s.logger, "trigger_social_ingest", apperrors.Wrap(err, apperrors.ErrorTypeInternal, "enqueue social dispatch"))
		return
	}

	writeJSON(w, http.StatusAccepted, triggerSocialIngestResponse{ChannelID: channelID.String()})
}
