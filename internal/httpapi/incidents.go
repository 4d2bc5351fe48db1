package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/metrics"
)

// activeIncidentStatuses is spec §4.8's "open/acknowledged/in_progress"
// set for GET /incidents/active; resolved and dismissed incidents never
// appear there.
var activeIncidentStatuses = []store.IncidentStatus{
	store.IncidentStatusOpen,
	store.IncidentStatusAcknowledged,
	store.IncidentStatusInProgress,
}

type activeIncidentsResponse struct {
	Items      []store.Incident `json:"items"`
	NextCursor string           `json:"nextCursor,omitempty"`
	HasMore    bool             `json:"hasMore"`
}

// metricsActiveIncidentGauge sets the ActiveIncidents gauge from the
// page this handler just served — the authoritative active-incident
// count this endpoint already had in hand, per DESIGN.md's decision to
// source that gauge here rather than add a dedicated store query to
// pkg/incident's evaluator. Only scopes actually present in this page
// are set, since a paginated or scope-filtered response can't speak to
// a scope it didn't observe.
func metricsActiveIncidentGauge(byScope map[store.TaxonomyKind]int) {
	for scope, count := range byScope {
		metrics.SetActiveIncidents(string(scope), float64(count))
	}
}

// handleActiveIncidents lists open/acknowledged/in_progress incidents,
// optionally narrowed to one taxonomy scope, per spec §4.8.
func (s *Server) handleActiveIncidents(w http.ResponseWriter, r *http.Request) {
	filter := store.IncidentFilter{Statuses: activeIncidentStatuses}
	if scope := r.URL.Query().Get("scope"); scope != "" {
		kind := store.TaxonomyKind(scope)
		filter.Scope = &kind
	}
	page := store.PageRequest{
		After:    r.URL.Query().Get("cursor"),
		PageSize: 0,
	}

	result, err := s.store.ListIncidents(r.Context(), filter, page)
	if err != nil {
		logAndWriteError(w, s.logger, "active_incidents", err)
		return
	}

	byScope := make(map[store.TaxonomyKind]int, 2)
	for _, inc := range result.Items {
		byScope[inc.Scope]++
	}
	metricsActiveIncidentGauge(byScope)

	writeJSON(w, http.StatusOK, activeIncidentsResponse{
		Items:      result.Items,
		NextCursor: result.NextCursor,
		HasMore:    result.HasMore,
	})
}

type addIncidentNoteRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type addIncidentNoteResponse struct {
	ID string `json:"id"`
}

// handleAddIncidentNote appends an analyst/admin note to an incident,
// per spec §4.8.
func (s *Server) handleAddIncidentNote(w http.ResponseWriter, r *http.Request) {
	incidentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewValidationError("id must be a valid UUID"))
		return
	}

	var req addIncidentNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewValidationError("invalid JSON body"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, apperrors.NewValidationError(err.Error()))
		return
	}

	identity, _ := IdentityFromContext(r.Context())
	note := &store.IncidentNote{
		ID:           uuid.New(),
		IncidentID:   incidentID,
		AuthorUserID: identity.Subject,
		Body:         req.Body,
	}
	if err := s.store.AddIncidentNote(r.Context(), note); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			writeError(w, apperrors.NewNotFoundError("incident"))
			return
		}
		logAndWriteError(w, s.logger, "add_incident_note", err)
		return
	}

	writeJSON(w, http.StatusCreated, addIncidentNoteResponse{ID: note.ID.String()})
}
