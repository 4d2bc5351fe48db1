// Package store defines the domain entities and the persistence
// contract every worker programs against. Concrete persistence lives in
// internal/store/rdsdata; this package only describes the shape of the
// data and the operations available on it.
package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle of an IngestionRun or IncidentEvaluationRun.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// TriggerType distinguishes a scheduled run from an operator-initiated one.
type TriggerType string

const (
	TriggerScheduled TriggerType = "scheduled"
	TriggerManual    TriggerType = "manual"
)

// SourceType is the origin of a ContentItem.
type SourceType string

const (
	SourceTypeNews   SourceType = "news"
	SourceTypeSocial SourceType = "social"
)

// ContentState is an analyst-facing triage state.
type ContentState string

const (
	ContentStateActive   ContentState = "active"
	ContentStateArchived ContentState = "archived"
	ContentStateHidden   ContentState = "hidden"
)

// IncidentStatus is the lifecycle of an Incident.
type IncidentStatus string

const (
	IncidentStatusOpen         IncidentStatus = "open"
	IncidentStatusAcknowledged IncidentStatus = "acknowledged"
	IncidentStatusInProgress   IncidentStatus = "in_progress"
	IncidentStatusResolved     IncidentStatus = "resolved"
	IncidentStatusDismissed    IncidentStatus = "dismissed"
)

// IncidentSeverity ranks reputational risk; SEV1 is the most severe.
type IncidentSeverity string

const (
	SeveritySEV1 IncidentSeverity = "SEV1"
	SeveritySEV2 IncidentSeverity = "SEV2"
	SeveritySEV3 IncidentSeverity = "SEV3"
	SeveritySEV4 IncidentSeverity = "SEV4"
)

// severityRank orders severities so SEV1 < SEV2 < SEV3 < SEV4 (lower
// rank is worse, matching the escalation comparison in spec §4.5).
var severityRank = map[IncidentSeverity]int{
	SeveritySEV1: 1,
	SeveritySEV2: 2,
	SeveritySEV3: 3,
	SeveritySEV4: 4,
}

// Rank returns the numeric rank used to compare severities; lower is
// more severe.
func (s IncidentSeverity) Rank() int {
	return severityRank[s]
}

// MoreSevereThan reports whether s is a worse (lower-ranked) severity
// than other.
func (s IncidentSeverity) MoreSevereThan(other IncidentSeverity) bool {
	return s.Rank() < other.Rank()
}

// ReportRunStatus is the lifecycle of a ReportRun.
type ReportRunStatus string

const (
	ReportRunStatusQueued        ReportRunStatus = "queued"
	ReportRunStatusRunning       ReportRunStatus = "running"
	ReportRunStatusCompleted     ReportRunStatus = "completed"
	ReportRunStatusFailed        ReportRunStatus = "failed"
	ReportRunStatusPendingReview ReportRunStatus = "pending_review"
)

// ReportScheduleFrequency is how often a ReportSchedule fires.
type ReportScheduleFrequency string

const (
	FrequencyDaily  ReportScheduleFrequency = "daily"
	FrequencyWeekly ReportScheduleFrequency = "weekly"
)

// NotificationRecipientKind distinguishes how a recipient was verified.
type NotificationRecipientKind string

const (
	RecipientKindVerifiedAddress NotificationRecipientKind = "verified_address"
	RecipientKindVerifiedDomain  NotificationRecipientKind = "verified_domain"
)

// TaxonomyKind distinguishes the two taxonomy scopes a TrackedQuery covers.
type TaxonomyKind string

const (
	TaxonomyScopeClaro       TaxonomyKind = "claro"
	TaxonomyScopeCompetencia TaxonomyKind = "competencia"
)

// Term is a single leaf of a Definition tree: either a literal
// (case-insensitive whole-word match) or a phrase (substring match).
type Term struct {
	Value    string `json:"value"`
	IsPhrase bool   `json:"isPhrase"`
}

// Definition is the boolean term tree a TrackedQuery is defined by.
type Definition struct {
	Include []Term `json:"include"`
	Any     []Term `json:"any"`
	Exclude []Term `json:"exclude"`
}

// ExecutionConfig restricts which providers/domains/countries a query runs against.
type ExecutionConfig struct {
	ProvidersAllow []string `json:"providersAllow"`
	ProvidersDeny  []string `json:"providersDeny"`
	DomainsAllow   []string `json:"domainsAllow"`
	DomainsDeny    []string `json:"domainsDeny"`
	CountriesAllow []string `json:"countriesAllow"`
	CountriesDeny  []string `json:"countriesDeny"`
}

// CompiledDefinition is the precomputed provider query text plus the
// evaluator form of a Definition.
type CompiledDefinition struct {
	Query      string     `json:"query"`
	Definition Definition `json:"definition"`
}

// TrackedQuery is a saved search.
type TrackedQuery struct {
	ID                 uuid.UUID
	Name               string
	Language           string
	Scope              TaxonomyKind
	IsActive           bool
	MaxArticlesPerRun  int
	Definition         Definition
	Execution          ExecutionConfig
	CompiledDefinition CompiledDefinition
	CurrentRevision    int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TrackedQueryRevision is an immutable snapshot written on every TrackedQuery update.
type TrackedQueryRevision struct {
	ID           uuid.UUID
	QueryID      uuid.UUID
	Revision     int
	Definition   Definition
	Execution    ExecutionConfig
	Compiled     CompiledDefinition
	ChangeReason string
	ActorUserID  string
	CreatedAt    time.Time
}

// IngestionRun is one fan-out pass over a set of queries.
type IngestionRun struct {
	ID                 uuid.UUID
	TriggerType        TriggerType
	Status             RunStatus
	Language           string
	EffectiveMaxPerTerm int
	RequestID          string
	StartedAt          time.Time
	FinishedAt         *time.Time
	Metrics            json.RawMessage
	ErrorMessage       string
}

// IngestionRunItem is a per-provider, per-run outcome.
type IngestionRunItem struct {
	RunID         uuid.UUID
	Provider      string
	FetchedCount  int
	PersistedCount int
	LatencyMs     int64
	Status        string
	ErrorMessage  string
}

// IngestionRunContentLink ties a run to the content items it persisted.
type IngestionRunContentLink struct {
	RunID         uuid.UUID
	ContentItemID uuid.UUID
	CanonicalURL  string
	Provider      string
	Term          string
}

// ContentItem is a normalized article or social post.
type ContentItem struct {
	ID              uuid.UUID
	CanonicalURL    string
	SourceType      SourceType
	TermID          *uuid.UUID
	Provider        string
	SourceName      string
	SourceID        string
	Title           string
	Summary         string
	Content         string
	ImageURL        string
	Language        string
	Category        string
	PublishedAt     time.Time
	SourceScore     float64
	RawPayloadS3Key string
	State           ContentState
	Categoria       string
	Sentimiento     string
	Metadata        json.RawMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ContentStateEvent records a ContentItem state transition.
type ContentStateEvent struct {
	ID            uuid.UUID
	ContentItemID uuid.UUID
	FromState     ContentState
	ToState       ContentState
	ActorUserID   string
	Reason        string
	CreatedAt     time.Time
}

// Sentiment is the normalized sentiment of a Classification.
type Sentiment string

const (
	SentimentPositivo Sentiment = "positivo"
	SentimentNeutro   Sentiment = "neutro"
	SentimentNegativo Sentiment = "negativo"
)

// Classification is the result of one LLM call or manual override.
type Classification struct {
	ContentItemID      uuid.UUID
	PromptVersion      string
	ModelID            string
	Categoria          string
	Sentimiento        Sentiment
	Etiquetas          []string
	Confianza          float64
	Resumen            string
	IsOverride         bool
	OverriddenByUserID string
	OverrideReason     string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IncidentPayload is the snapshot of the computation that produced an Incident.
type IncidentPayload struct {
	Scope            TaxonomyKind `json:"scope"`
	RiskWeighted     float64      `json:"riskWeighted"`
	ClassifiedWeight float64      `json:"classifiedWeight"`
	NegativeWeight   float64      `json:"negativeWeight"`
	Positives        int          `json:"positives"`
	Negatives        int          `json:"negatives"`
	Neutrals         int          `json:"neutrals"`
	Unknown          int          `json:"unknown"`
	SignalVersion    string       `json:"signalVersion"`
	// Source names the signal that drove this incident write, e.g.
	// "classification" (the §4.5 evaluator) or "social" (§4.3.1's
	// trailing-24h negative-hint-share trigger). Empty means
	// "classification", the original single source before social
	// ingestion could also raise incidents.
	Source string `json:"source,omitempty"`
}

// Incident is one open reputational alert per scope.
type Incident struct {
	ID              uuid.UUID
	Scope           TaxonomyKind
	Status          IncidentStatus
	Severity        IncidentSeverity
	RiskScore       float64
	ClassifiedItems int
	OwnerUserID     string
	SLADueAt        time.Time
	CooldownUntil   time.Time
	SignalVersion   string
	Payload         IncidentPayload
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
}

// IncidentNote is an analyst annotation on an Incident.
type IncidentNote struct {
	ID          uuid.UUID
	IncidentID  uuid.UUID
	AuthorUserID string
	Body        string
	CreatedAt   time.Time
}

// IncidentEvaluationRun is one pass of the incident evaluator.
type IncidentEvaluationRun struct {
	ID           uuid.UUID
	TriggerType  TriggerType
	Status       RunStatus
	Metrics      json.RawMessage
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// ReportTemplate is a named report definition.
type ReportTemplate struct {
	ID                  uuid.UUID
	Name                string
	Sections            []string
	Filters             json.RawMessage
	ConfidenceThreshold float64
	IsActive            bool
}

// ReportSchedule drives automatic ReportRun creation from a template.
type ReportSchedule struct {
	ID         uuid.UUID
	TemplateID uuid.UUID
	Frequency  ReportScheduleFrequency
	DayOfWeek  *int
	TimeLocal  string
	Timezone   string
	Recipients []string
	NextRunAt  time.Time
	LastRunAt  *time.Time
	Enabled    bool
}

// ReportRun is a materialization of a template over a 7-day window.
type ReportRun struct {
	ID                uuid.UUID
	TemplateID        uuid.UUID
	ScheduleID        *uuid.UUID
	Status            ReportRunStatus
	Confidence        float64
	Summary           string
	Recommendations   []string
	BlockedReason     string
	ExportJobID       *uuid.UUID
	IdempotencyKey    string
	RequestedByUserID string
	StartedAt         *time.Time
	FinishedAt        *time.Time
	ErrorMessage      string
	CreatedAt         time.Time
}

// ExportJob is an async CSV render request.
type ExportJob struct {
	ID                uuid.UUID
	Filters           json.RawMessage
	Status            RunStatus
	RowCount          int
	S3Key             string
	RequestedByUserID string
	CreatedAt         time.Time
	FinishedAt        *time.Time
}

// AuditLog is an append-only record of a mutating operation.
type AuditLog struct {
	ID           uuid.UUID
	ActorUserID  string
	Action       string
	ResourceType string
	ResourceID   string
	RequestID    string
	Before       json.RawMessage
	After        json.RawMessage
	CreatedAt    time.Time
}

// SourceWeight is a configured credibility weight for a (provider,
// sourceName) pair, falling back to (provider, nil) for a
// provider-wide default.
type SourceWeight struct {
	Provider   string
	SourceName *string
	Weight     float64
}

// SocialChannel is a configured social-media listening source.
type SocialChannel struct {
	ID          uuid.UUID
	Name        string
	Platform    string
	ObjectKeyPrefix string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SocialPost is a normalized row from a social channel's CSV export.
type SocialPost struct {
	ID              uuid.UUID
	ChannelID       uuid.UUID
	ContentItemID   *uuid.UUID
	ExternalID      string
	Author          string
	Body            string
	PublishedAt     time.Time
	SentimentHint   string
	Metadata        json.RawMessage
	CreatedAt       time.Time
}

// SocialChannelReconciliation is a snapshot of one channel-ingestion pass.
type SocialChannelReconciliation struct {
	ID              uuid.UUID
	ChannelID       uuid.UUID
	Status          string // ok, warning, failed
	ObjectsScanned  int
	ObjectsMarked   int
	PostsIngested   int
	NegativeHintShare float64
	TriggeredIncident bool
	CreatedAt       time.Time
}
