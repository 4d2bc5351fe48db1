// Package httpapi implements cmd/api's trigger endpoints of spec §4.8:
// the router and JWT signature verification are an external
// collaborator (out of scope per spec §1); the validation, role gate
// and dispatch bodies mounted here are this repo's code.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/config"
	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/classification"
)

// enqueuer is the slice of internal/queue.Queue every handler needs to
// dispatch a message, narrowed for testability the same way every
// worker package in this core narrows it.
type enqueuer interface {
	Send(ctx context.Context, body string) error
}

// Server wires spec §4.8's six trigger endpoints onto a chi.Router.
type Server struct {
	router *chi.Mux

	store               store.Store
	ingestionQueue      enqueuer
	classificationSched *classification.Scheduler
	reportQueue         enqueuer
	socialQueue         enqueuer
	validate            *validator.Validate
	logger              *zap.Logger
}

// Deps carries every Server dependency.
type Deps struct {
	Store               store.Store
	IngestionQueue      enqueuer
	ClassificationSched *classification.Scheduler
	ReportQueue         enqueuer
	SocialQueue         enqueuer
	Logger              *zap.Logger
}

// NewServer builds the Server and mounts every route.
func NewServer(cfg config.HTTPConfig, deps Deps) *Server {
	s := &Server{
		router:              chi.NewRouter(),
		store:               deps.Store,
		ingestionQueue:      deps.IngestionQueue,
		classificationSched: deps.ClassificationSched,
		reportQueue:         deps.ReportQueue,
		socialQueue:         deps.SocialQueue,
		validate:            validator.New(),
		logger:              deps.Logger,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/", func(r chi.Router) {
		r.Use(Authenticate)

		r.With(RequireRole(RoleAnalyst)).Post("/ingestion/runs", s.handleTriggerIngestion)
		r.With(RequireRole(RoleAnalyst)).Post("/classification/runs", s.handleTriggerClassification)
		r.With(RequireRole(RoleAnalyst)).Post("/reports/{scheduleId}/run", s.handleTriggerReport)
		r.With(RequireRole(RoleViewer)).Get("/incidents/active", s.handleActiveIncidents)
		r.With(RequireRole(RoleAnalyst)).Post("/incidents/{id}/notes", s.handleAddIncidentNote)
		r.With(RequireRole(RoleAnalyst)).Post("/social/channels/{id}/ingest", s.handleTriggerSocialIngest)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
