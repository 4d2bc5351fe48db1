package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/config"
	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/classification"
)

type fakeQueue struct {
	sent []string
	err  error
}

func (f *fakeQueue) Send(ctx context.Context, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, body)
	return nil
}

type fakeStore struct {
	store.Store

	channels  map[uuid.UUID]*store.SocialChannel
	schedules map[uuid.UUID]*store.ReportSchedule
	incidents []store.Incident
	notes     []*store.IncidentNote

	enqueuedRun *store.ReportRun
	enqueueErr  error
	listErr     error
}

func (f *fakeStore) Tx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, f)
}

func (f *fakeStore) GetSocialChannel(ctx context.Context, id uuid.UUID) (*store.SocialChannel, error) {
	if c, ok := f.channels[id]; ok {
		return c, nil
	}
	return nil, apperrors.NewNotFoundError("social channel")
}

func (f *fakeStore) GetReportSchedule(ctx context.Context, id uuid.UUID) (*store.ReportSchedule, error) {
	if s, ok := f.schedules[id]; ok {
		return s, nil
	}
	return nil, apperrors.NewNotFoundError("report schedule")
}

func (f *fakeStore) EnqueueReportRunForSchedule(ctx context.Context, schedule *store.ReportSchedule, slot time.Time) (*store.ReportRun, bool, error) {
	if f.enqueueErr != nil {
		return nil, false, f.enqueueErr
	}
	return f.enqueuedRun, true, nil
}

func (f *fakeStore) ListIncidents(ctx context.Context, filter store.IncidentFilter, page store.PageRequest) (store.Page[store.Incident], error) {
	if f.listErr != nil {
		return store.Page[store.Incident]{}, f.listErr
	}
	items := f.incidents
	if filter.Scope != nil {
		filtered := make([]store.Incident, 0, len(items))
		for _, inc := range items {
			if inc.Scope == *filter.Scope {
				filtered = append(filtered, inc)
			}
		}
		items = filtered
	}
	return store.Page[store.Incident]{Items: items}, nil
}

func (f *fakeStore) AddIncidentNote(ctx context.Context, note *store.IncidentNote) error {
	f.notes = append(f.notes, note)
	return nil
}

func (f *fakeStore) ListActiveNewsForClassification(ctx context.Context, windowStart time.Time, promptVersion, modelID string, limit int) ([]uuid.UUID, error) {
	return nil, nil
}

func newTestServer(t *testing.T, fs *fakeStore, ingestionQ, reportQ, socialQ *fakeQueue) *Server {
	t.Helper()
	logger := zap.NewNop()
	sched := classification.NewScheduler(fs, &fakeQueue{}, 7, 10, "v1", "model-1")
	return NewServer(config.HTTPConfig{Port: "8080"}, Deps{
		Store:               fs,
		IngestionQueue:      ingestionQ,
		ClassificationSched: sched,
		ReportQueue:         reportQ,
		SocialQueue:         socialQ,
		Logger:              logger,
	})
}

func tokenWithGroups(t *testing.T, groups interface{}) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "user-1", "groups": groups}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("test-signing-key-unused-by-parser"))
	require.NoError(t, err)
	return signed
}

func authedRequest(t *testing.T, method, path string, body []byte, role string) *http.Request {
	t.Helper()
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	r.Header.Set("Content-Type", "application/json")
	if role != "" {
		r.Header.Set("Authorization", "Bearer "+tokenWithGroups(t, []interface{}{role}))
	}
	return r
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeQueue{}, &fakeQueue{}, &fakeQueue{})
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate_MissingBearerToken(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeQueue{}, &fakeQueue{}, &fakeQueue{})
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ingestion/runs", bytes.NewReader([]byte("{}"))))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_MalformedToken(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeQueue{}, &fakeQueue{}, &fakeQueue{})
	r := httptest.NewRequest(http.MethodPost, "/ingestion/runs", bytes.NewReader([]byte("{}")))
	r.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole_InsufficientRoleIsForbidden(t *testing.T) {
	q := &fakeQueue{}
	s := newTestServer(t, &fakeStore{}, q, &fakeQueue{}, &fakeQueue{})
	r := authedRequest(t, http.MethodPost, "/ingestion/runs", []byte("{}"), "viewer")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, q.sent)
}

func TestTriggerIngestion_HappyPath(t *testing.T) {
	q := &fakeQueue{}
	s := newTestServer(t, &fakeStore{}, q, &fakeQueue{}, &fakeQueue{})
	body, _ := json.Marshal(triggerIngestionRequest{Language: "pt-BR", MaxArticlesPerTerm: 2})
	r := authedRequest(t, http.MethodPost, "/ingestion/runs", body, "analyst")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, q.sent, 1)

	var resp triggerIngestionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	_, err := uuid.Parse(resp.RunID)
	assert.NoError(t, err)
}

func TestTriggerIngestion_InvalidLanguageTagRejected(t *testing.T) {
	q := &fakeQueue{}
	s := newTestServer(t, &fakeStore{}, q, &fakeQueue{}, &fakeQueue{})
	body, _ := json.Marshal(triggerIngestionRequest{Language: "not-a-valid-tag-!!", MaxArticlesPerTerm: 1})
	r := authedRequest(t, http.MethodPost, "/ingestion/runs", body, "analyst")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, q.sent)
}

func TestTriggerIngestion_InvalidTermIDRejected(t *testing.T) {
	q := &fakeQueue{}
	s := newTestServer(t, &fakeStore{}, q, &fakeQueue{}, &fakeQueue{})
	body, _ := json.Marshal(triggerIngestionRequest{TermIDs: []string{"not-a-uuid"}})
	r := authedRequest(t, http.MethodPost, "/ingestion/runs", body, "analyst")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, q.sent)
}

func TestTriggerClassification_RunsSynchronously(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeQueue{}, &fakeQueue{}, &fakeQueue{})
	r := authedRequest(t, http.MethodPost, "/classification/runs", []byte(`{"requestId":"req-1"}`), "analyst")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp triggerClassificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Enqueued)
}

func TestTriggerReport_ScheduleNotFound(t *testing.T) {
	fs := &fakeStore{schedules: map[uuid.UUID]*store.ReportSchedule{}}
	s := newTestServer(t, fs, &fakeQueue{}, &fakeQueue{}, &fakeQueue{})
	r := authedRequest(t, http.MethodPost, "/reports/"+uuid.New().String()+"/run", []byte("{}"), "analyst")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTriggerReport_HappyPath(t *testing.T) {
	scheduleID := uuid.New()
	runID := uuid.New()
	fs := &fakeStore{
		schedules: map[uuid.UUID]*store.ReportSchedule{
			scheduleID: {ID: scheduleID, TemplateID: uuid.New()},
		},
		enqueuedRun: &store.ReportRun{ID: runID, TemplateID: uuid.New()},
	}
	q := &fakeQueue{}
	s := newTestServer(t, fs, &fakeQueue{}, q, &fakeQueue{})
	r := authedRequest(t, http.MethodPost, "/reports/"+scheduleID.String()+"/run", []byte(`{"requestId":"r1"}`), "analyst")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, q.sent, 1)
	var resp triggerReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, runID.String(), resp.ReportRunID)
}

func TestActiveIncidents_ScopeFilter(t *testing.T) {
	fs := &fakeStore{
		incidents: []store.Incident{
			{ID: uuid.New(), Scope: store.TaxonomyScopeClaro, Status: store.IncidentStatusOpen},
			{ID: uuid.New(), Scope: store.TaxonomyScopeCompetencia, Status: store.IncidentStatusOpen},
		},
	}
	s := newTestServer(t, fs, &fakeQueue{}, &fakeQueue{}, &fakeQueue{})
	r := authedRequest(t, http.MethodGet, "/incidents/active?scope=claro", nil, "viewer")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp activeIncidentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, store.TaxonomyScopeClaro, resp.Items[0].Scope)
}

func TestAddIncidentNote_HappyPath(t *testing.T) {
	fs := &fakeStore{}
	s := newTestServer(t, fs, &fakeQueue{}, &fakeQueue{}, &fakeQueue{})
	incidentID := uuid.New()
	body, _ := json.Marshal(addIncidentNoteRequest{Body: "investigating"})
	r := authedRequest(t, http.MethodPost, "/incidents/"+incidentID.String()+"/notes", body, "analyst")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, fs.notes, 1)
	assert.Equal(t, incidentID, fs.notes[0].IncidentID)
	assert.Equal(t, "user-1", fs.notes[0].AuthorUserID)
}

func TestAddIncidentNote_BodyTooLongRejected(t *testing.T) {
	fs := &fakeStore{}
	s := newTestServer(t, fs, &fakeQueue{}, &fakeQueue{}, &fakeQueue{})
	body, _ := json.Marshal(addIncidentNoteRequest{Body: string(make([]byte, 4001))})
	r := authedRequest(t, http.MethodPost, "/incidents/"+uuid.New().String()+"/notes", body, "analyst")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, fs.notes)
}

func TestTriggerSocialIngest_ChannelNotFound(t *testing.T) {
	fs := &fakeStore{channels: map[uuid.UUID]*store.SocialChannel{}}
	s := newTestServer(t, fs, &fakeQueue{}, &fakeQueue{}, &fakeQueue{})
	r := authedRequest(t, http.MethodPost, "/social/channels/"+uuid.New().String()+"/ingest", []byte("{}"), "analyst")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTriggerSocialIngest_HappyPath(t *testing.T) {
	channelID := uuid.New()
	fs := &fakeStore{channels: map[uuid.UUID]*store.SocialChannel{
		channelID: {ID: channelID, Name: "ig-main"},
	}}
	q := &fakeQueue{}
	s := newTestServer(t, fs, &fakeQueue{}, &fakeQueue{}, q)
	r := authedRequest(t, http.MethodPost, "/social/channels/"+channelID.String()+"/ingest", []byte("{}"), "analyst")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, q.sent, 1)
}
