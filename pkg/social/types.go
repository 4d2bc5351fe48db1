// Package social implements the Social Ingestion worker of spec
// §4.3.1: list a channel's CSV drops from object storage, parse and
// upsert their rows as SocialPosts, write a reconciliation snapshot,
// and optionally raise a claro-scope incident when the channel's
// trailing-24h negative-sentiment-hint share crosses a threshold.
package social

import (
	"time"

	"github.com/google/uuid"
)

// reconciliationWindow is the "trailing-24h" window spec §4.3.1 step 5
// measures the negative-sentiment-hint share over.
const reconciliationWindow = 24 * time.Hour

// acceptRateOK and acceptRateWarning are spec §4.3.1 step 4's
// row-accept-rate thresholds: >= 0.9 is ok, [0.5, 0.9) is warning,
// below 0.5 (or a whole-object parse exception) is failed.
const (
	acceptRateOK      = 0.9
	acceptRateWarning = 0.5
)

// ReconciliationStatus mirrors the persisted status column.
type ReconciliationStatus = string

const (
	StatusOK      ReconciliationStatus = "ok"
	StatusWarning ReconciliationStatus = "warning"
	StatusFailed  ReconciliationStatus = "failed"
)

// DispatchMessage is the social queue payload: a single channel sweep,
// or (ChannelID == uuid.Nil) a sweep across every active channel.
type DispatchMessage struct {
	ChannelID   uuid.UUID  `json:"channel_id"`
	RequestID   string     `json:"request_id,omitempty"`
	RequestedAt *time.Time `json:"requested_at,omitempty"`
}

// ChannelResult summarizes one channel's ingestion pass.
type ChannelResult struct {
	ChannelID         uuid.UUID
	ObjectsScanned    int
	ObjectsMarked     int
	PostsIngested     int
	Status            ReconciliationStatus
	NegativeHintShare float64
	TriggeredIncident bool
}

// postCandidate is one parsed-but-not-yet-persisted CSV row.
type postCandidate struct {
	ExternalID    string
	Author        string
	Body          string
	PublishedAt   time.Time
	URL           string
	SentimentHint string
}
