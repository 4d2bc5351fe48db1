package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cursor is an opaque, base64-url-encoded pagination token over
// (orderedKey, id), ordered strictly-less so a page never repeats or
// skips a row even under concurrent inserts.
type Cursor struct {
	OrderedKey time.Time
	ID         uuid.UUID
}

// Encode renders the cursor as the opaque string returned to callers.
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%d:%s", c.OrderedKey.UnixNano(), c.ID.String())
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque cursor string produced by Encode.
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid cursor encoding: %w", err)
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return Cursor{}, fmt.Errorf("invalid cursor format")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid cursor id: %w", err)
	}
	return Cursor{OrderedKey: time.Unix(0, nanos), ID: id}, nil
}

// Page is a single cursor-paginated result window.
type Page[T any] struct {
	Items      []T
	NextCursor string
	HasMore    bool
}

// PageRequest bounds a cursor-paginated list call.
type PageRequest struct {
	After    string
	PageSize int
}

// DefaultPageSize is used when a PageRequest omits PageSize.
const DefaultPageSize = 25

// MaxPageSize caps PageRequest.PageSize to keep Data API scans small,
// per spec §9's "cursor-paginated scans use small page sizes".
const MaxPageSize = 200

func (r PageRequest) normalizedSize() int {
	if r.PageSize <= 0 {
		return DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return r.PageSize
}

// TrackedQueryFilter narrows a TrackedQuery listing.
type TrackedQueryFilter struct {
	Scope    *TaxonomyKind
	IsActive *bool
}

// ContentItemFilter narrows a ContentItem listing; fields map to
// spec §4.6's export filter whitelist: source_type, state, from, to,
// provider, category, sentimiento, term_id, q.
type ContentItemFilter struct {
	SourceType  *SourceType
	State       *ContentState
	From        *time.Time
	To          *time.Time
	Provider    *string
	Category    *string
	Sentimiento *string
	TermID      *uuid.UUID
	Query       *string
}

// IncidentFilter narrows an Incident listing.
type IncidentFilter struct {
	Statuses []IncidentStatus
	Scope    *TaxonomyKind
}

// Store is the full persistence contract every worker and HTTP handler
// programs against. Tx returns a scoped handle for operations that must
// share one transaction (e.g. a state mutation plus its audit log entry).
type Store interface {
	Tx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	// Tracked queries
	GetTrackedQuery(ctx context.Context, id uuid.UUID) (*TrackedQuery, error)
	GetTrackedQueryByNameLanguage(ctx context.Context, name, language string) (*TrackedQuery, error)
	ListActiveTrackedQueries(ctx context.Context, limit int) ([]TrackedQuery, error)
	ListTrackedQueries(ctx context.Context, filter TrackedQueryFilter, page PageRequest) (Page[TrackedQuery], error)
	UpsertTrackedQuery(ctx context.Context, q *TrackedQuery, changeReason, actorUserID string) error
	DeactivateTrackedQuery(ctx context.Context, id uuid.UUID, actorUserID string) error

	// Ingestion
	ClaimIngestionRun(ctx context.Context, run *IngestionRun) (claimed bool, err error)
	FinishIngestionRun(ctx context.Context, run *IngestionRun) error
	ReplaceIngestionRunItems(ctx context.Context, runID uuid.UUID, items []IngestionRunItem) error
	LinkIngestionRunContent(ctx context.Context, runID uuid.UUID, links []IngestionRunContentLink) (newlyLinked []IngestionRunContentLink, err error)
	GetIngestionRun(ctx context.Context, id uuid.UUID) (*IngestionRun, error)

	// Content items
	UpsertContentItem(ctx context.Context, item *ContentItem) (id uuid.UUID, err error)
	GetContentItem(ctx context.Context, id uuid.UUID) (*ContentItem, error)
	GetContentItemByCanonicalURL(ctx context.Context, canonicalURL string) (*ContentItem, error)
	ListContentItems(ctx context.Context, filter ContentItemFilter, page PageRequest) (Page[ContentItem], error)
	TransitionContentState(ctx context.Context, id uuid.UUID, to ContentState, actorUserID, reason string) error
	ListActiveNewsForClassification(ctx context.Context, windowStart time.Time, promptVersion, modelID string, limit int) ([]uuid.UUID, error)
	ListActiveNewsForEvaluation(ctx context.Context, windowStart time.Time) ([]ContentItem, error)

	// Classification
	GetManualOverride(ctx context.Context, contentItemID uuid.UUID) (*Classification, error)
	GetLatestClassification(ctx context.Context, contentItemID uuid.UUID) (*Classification, error)
	UpsertClassification(ctx context.Context, c *Classification) error

	// Source weights
	GetSourceWeight(ctx context.Context, provider string, sourceName *string) (*SourceWeight, error)

	// Incidents
	GetActiveIncidentForScope(ctx context.Context, scope TaxonomyKind) (*Incident, error)
	CreateIncident(ctx context.Context, incident *Incident) error
	UpdateIncident(ctx context.Context, incident *Incident) error
	ListIncidents(ctx context.Context, filter IncidentFilter, page PageRequest) (Page[Incident], error)
	AddIncidentNote(ctx context.Context, note *IncidentNote) error
	CreateIncidentEvaluationRun(ctx context.Context, run *IncidentEvaluationRun) error
	FinishIncidentEvaluationRun(ctx context.Context, run *IncidentEvaluationRun) error

	// Reports
	GetReportTemplate(ctx context.Context, id uuid.UUID) (*ReportTemplate, error)
	GetReportSchedule(ctx context.Context, id uuid.UUID) (*ReportSchedule, error)
	ClaimReportRun(ctx context.Context, id uuid.UUID) (claimed bool, run *ReportRun, err error)
	GetReportRunWithTemplateAndSchedule(ctx context.Context, id uuid.UUID) (*ReportRun, *ReportTemplate, *ReportSchedule, error)
	FinishReportRun(ctx context.Context, run *ReportRun) error
	DueReportSchedules(ctx context.Context, now time.Time) ([]ReportSchedule, error)
	EnqueueReportRunForSchedule(ctx context.Context, schedule *ReportSchedule, slot time.Time) (*ReportRun, bool, error)
	AdvanceScheduleNextRun(ctx context.Context, scheduleID uuid.UUID, nextRunAt time.Time) error

	// Export
	CreateExportJob(ctx context.Context, job *ExportJob) error
	FinishExportJob(ctx context.Context, job *ExportJob) error

	// Social
	GetSocialChannel(ctx context.Context, id uuid.UUID) (*SocialChannel, error)
	ListActiveSocialChannels(ctx context.Context) ([]SocialChannel, error)
	MarkSocialObjectProcessed(ctx context.Context, channelID uuid.UUID, objectKey, objectETag string) (alreadyProcessed bool, err error)
	InsertSocialPosts(ctx context.Context, posts []SocialPost) (inserted int, err error)
	RecordSocialReconciliation(ctx context.Context, rec *SocialChannelReconciliation) error

	// Audit
	AppendAuditLog(ctx context.Context, entry *AuditLog) error
}
