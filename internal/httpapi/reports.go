package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/pkg/report"
)

type triggerReportRequest struct {
	RequestID         string `json:"requestId"`
	RequestedByUserID string `json:"requestedByUserId"`
}

type triggerReportResponse struct {
	ReportRunID string `json:"reportRunId"`
}

// handleTriggerReport materializes an ad-hoc ReportRun for the named
// schedule's template outside its regular slot and enqueues it, per
// spec §4.8. EnqueueReportRunForSchedule's idempotencyKey is keyed on
// (scheduleId, slot), so this "now" slot never collides with the
// schedule's own next scheduled run.
func (s *Server) handleTriggerReport(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := uuid.Parse(chi.URLParam(r, "scheduleId"))
	if err != nil {
		writeError(w, apperrors.NewValidationError("scheduleId must be a valid UUID"))
		return
	}

	var req triggerReportRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.NewValidationError("invalid JSON body"))
			return
		}
	}

	schedule, err := s.store.GetReportSchedule(r.Context(), scheduleID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			writeError(w, apperrors.NewNotFoundError("report schedule"))
			return
		}
		logAndWriteError(w, s.logger, "trigger_report", err)
		return
	}

	run, _, err := s.store.EnqueueReportRunForSchedule(r.Context(), schedule, time.Now().UTC())
	if err != nil {
		logAndWriteError(w, s.logger, "trigger_report", apperrors.Wrap(err, apperrors.ErrorTypeInternal, "materialize ad-hoc report run"))
		return
	}

	body, err := json.Marshal(report.DispatchMessage{
		ReportRunID:       run.ID,
		RequestID:         req.RequestID,
		RequestedByUserID: req.RequestedByUserID,
	})
	if err != nil {
		logAndWriteError(w, s.logger, "trigger_report", apperrors.Wrap(err, apperrors.ErrorTypeInternal, "marshal dispatch message"))
		return
	}
	if err := s.reportQueue.Send(r.Context(), string(body)); err != nil {
		logAndWriteError(w, s.logger, "trigger_report", apperrors.Wrap(err, apperrors.ErrorTypeInternal, "enqueue report dispatch"))
		return
	}

	writeJSON(w, http.StatusAccepted, triggerReportResponse{ReportRunID: run.ID.String()})
}
