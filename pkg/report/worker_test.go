package report

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/report/email"
	"github.com/claro-ops/media-intel/pkg/report/notify"
)

type fakeStore struct {
	store.Store

	claimed       bool
	claimOK       bool
	run           *store.ReportRun
	template      *store.ReportTemplate
	schedule      *store.ReportSchedule
	loadErr       error
	items         []store.ContentItem
	trackedByID   map[uuid.UUID]*store.TrackedQuery
	activeByScope map[store.TaxonomyKind]*store.Incident

	exportJobs []*store.ExportJob
	finished   []*store.ReportRun
	createErr  error
}

func (f *fakeStore) ClaimReportRun(ctx context.Context, id uuid.UUID) (bool, *store.ReportRun, error) {
	f.claimed = true
	return f.claimOK, f.run, nil
}

func (f *fakeStore) GetReportRunWithTemplateAndSchedule(ctx context.Context, id uuid.UUID) (*store.ReportRun, *store.ReportTemplate, *store.ReportSchedule, error) {
	if f.loadErr != nil {
		return nil, nil, nil, f.loadErr
	}
	return f.run, f.template, f.schedule, nil
}

func (f *fakeStore) FinishReportRun(ctx context.Context, run *store.ReportRun) error {
	f.finished = append(f.finished, run)
	return nil
}

func (f *fakeStore) ListContentItems(ctx context.Context, filter store.ContentItemFilter, page store.PageRequest) (store.Page[store.ContentItem], error) {
	return store.Page[store.ContentItem]{Items: f.items}, nil
}

func (f *fakeStore) ListIncidents(ctx context.Context, filter store.IncidentFilter, page store.PageRequest) (store.Page[store.Incident], error) {
	return store.Page[store.Incident]{}, nil
}

func (f *fakeStore) GetActiveIncidentForScope(ctx context.Context, scope store.TaxonomyKind) (*store.Incident, error) {
	if inc, ok := f.activeByScope[scope]; ok {
		return inc, nil
	}
	return nil, apperrors.NewNotFoundError("incident")
}

func (f *fakeStore) GetTrackedQuery(ctx context.Context, id uuid.UUID) (*store.TrackedQuery, error) {
	if q, ok := f.trackedByID[id]; ok {
		return q, nil
	}
	return nil, apperrors.NewNotFoundError("tracked query")
}

func (f *fakeStore) CreateExportJob(ctx context.Context, job *store.ExportJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	job.ID = uuid.New()
	f.exportJobs = append(f.exportJobs, job)
	return nil
}

type fakeExportQueue struct {
	sent []string
}

func (f *fakeExportQueue) Send(ctx context.Context, body string) error {
	f.sent = append(f.sent, body)
	return nil
}

// noopEmailClient reports every identity unverified, so report-worker
// tests exercise the email skip path without touching a live SES client.
type noopEmailClient struct{}

func (noopEmailClient) GetEmailIdentity(ctx context.Context, params *sesv2.GetEmailIdentityInput, optFns ...func(*sesv2.Options)) (*sesv2.GetEmailIdentityOutput, error) {
	return nil, &types.NotFoundException{}
}

func (noopEmailClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	return &sesv2.SendEmailOutput{}, nil
}

func newClaroItems(n int, sentiment store.Sentiment, termID uuid.UUID) []store.ContentItem {
	items := make([]store.ContentItem, n)
	for i := range items {
		items[i] = store.ContentItem{
			ID: uuid.New(), TermID: &termID, State: store.ContentStateActive,
			SourceType: store.SourceTypeNews, PublishedAt: time.Now(), Sentimiento: string(sentiment),
		}
	}
	return items
}

func newTestWorker(f *fakeStore, queue exportEnqueuer) *Worker {
	emailer := email.NewSenderWithClient(noopEmailClient{}, "reportes@claro-ops.com", zap.NewNop())
	notifier := notify.New("", "", zap.NewNop())
	return NewWorker(f, queue, emailer, notifier, 0.65, zap.NewNop())
}

func TestWorker_DropsDuplicateClaim(t *testing.T) {
	f := &fakeStore{claimOK: false, run: &store.ReportRun{ID: uuid.New()}}
	w := newTestWorker(f, &fakeExportQueue{})

	err := w.Run(context.Background(), DispatchMessage{ReportRunID: f.run.ID})

	require.NoError(t, err)
	assert.Empty(t, f.finished)
	assert.Empty(t, f.exportJobs)
}

func TestWorker_FailsWhenTemplateMissing(t *testing.T) {
	f := &fakeStore{claimOK: true, run: &store.ReportRun{ID: uuid.New()}, template: nil}
	w := newTestWorker(f, &fakeExportQueue{})

	err := w.Run(context.Background(), DispatchMessage{ReportRunID: f.run.ID})

	require.Error(t, err)
	require.Len(t, f.finished, 1)
	assert.Equal(t, store.ReportRunStatusFailed, f.finished[0].Status)
	assert.Equal(t, "report_run_not_found_after_claim", f.finished[0].ErrorMessage)
}

func TestWorker_CompletesAboveThreshold(t *testing.T) {
	termID := uuid.New()
	f := &fakeStore{
		claimOK:       true,
		run:           &store.ReportRun{ID: uuid.New(), RequestedByUserID: "analyst-1"},
		template:      &store.ReportTemplate{ID: uuid.New(), Name: "daily", ConfidenceThreshold: 0.1},
		schedule:      &store.ReportSchedule{ID: uuid.New(), Recipients: []string{}},
		trackedByID:   map[uuid.UUID]*store.TrackedQuery{termID: {ID: termID, Scope: store.TaxonomyScopeClaro}},
		activeByScope: map[store.TaxonomyKind]*store.Incident{},
	}
	f.items = newClaroItems(150, store.SentimentPositivo, termID)
	queue := &fakeExportQueue{}
	w := newTestWorker(f, queue)

	err := w.Run(context.Background(), DispatchMessage{ReportRunID: f.run.ID})

	require.NoError(t, err)
	require.Len(t, f.finished, 1)
	assert.Equal(t, store.ReportRunStatusCompleted, f.finished[0].Status)
	require.Len(t, f.exportJobs, 1)
	assert.Equal(t, "analyst-1", f.exportJobs[0].RequestedByUserID)
	assert.Len(t, queue.sent, 1)
	assert.NotEmpty(t, f.finished[0].Recommendations)
}

func TestWorker_PendingReviewBelowThreshold(t *testing.T) {
	termID := uuid.New()
	f := &fakeStore{
		claimOK:       true,
		run:           &store.ReportRun{ID: uuid.New()},
		template:      &store.ReportTemplate{ID: uuid.New(), Name: "daily", ConfidenceThreshold: 0.999},
		schedule:      &store.ReportSchedule{ID: uuid.New(), Recipients: []string{"ops@claro.com"}},
		trackedByID:   map[uuid.UUID]*store.TrackedQuery{termID: {ID: termID, Scope: store.TaxonomyScopeClaro}},
		activeByScope: map[store.TaxonomyKind]*store.Incident{},
	}
	f.items = newClaroItems(1, store.SentimentNegativo, termID)
	w := newTestWorker(f, &fakeExportQueue{})

	err := w.Run(context.Background(), DispatchMessage{ReportRunID: f.run.ID})

	require.NoError(t, err)
	require.Len(t, f.finished, 1)
	assert.Equal(t, store.ReportRunStatusPendingReview, f.finished[0].Status)
	assert.Equal(t, "confidence_below_threshold", f.finished[0].BlockedReason)
}
