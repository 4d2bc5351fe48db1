// Package providers implements the news-provider adapters of spec §4.2:
// a shared fetch/retry/canonicalization harness plus one adapter per
// upstream news API, each returning a normalized, provider-agnostic
// article shape the ingestion worker can evaluate and persist.
package providers

import "time"

// ErrorType classifies a fetch failure for observability; it never
// aborts an ingestion run by itself.
type ErrorType string

const (
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeUpstream5xx ErrorType = "upstream_5xx"
	ErrorTypeSchema      ErrorType = "schema"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// NormalizedArticle is the provider-agnostic shape every adapter
// normalizes its raw response into.
type NormalizedArticle struct {
	SourceType   string
	Provider     string
	Term         string
	CanonicalURL string
	Title        string
	SourceName   string
	SourceID     string
	Author       string
	Summary      string
	Content      string
	ImageURL     string
	PublishedAt  time.Time
	Language     string
	Category     string
	Metadata     map[string]string
}

// ProviderFetchResult is the outcome of one adapter.Fetch call.
type ProviderFetchResult struct {
	Provider   string
	Term       string
	Items      []NormalizedArticle
	RequestURL string
	RawCount   int
	DurationMs int64
	ErrorType  ErrorType
	Error      string
}

// FetchRequest is the input to Adapter.Fetch.
type FetchRequest struct {
	Term     string
	Language string
	Max      int
}

const (
	maxTitleLen   = 500
	maxSummaryLen = 2000
	maxContentLen = 16000
	maxURLLen     = 2048
)
