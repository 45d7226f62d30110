package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrQuotaExceeded is returned before any provider or enrichment work when a
// client or the whole process has used up its invocation window.
var ErrQuotaExceeded = errors.New("quota exceeded")

// ErrEmptyInput is returned when a request carries no usable text.
var ErrEmptyInput = errors.New("no input provided")

// Source identifies an upstream content provider.
type Source string

const (
	SourceYouTube Source = "youtube"
	SourceTwitter Source = "twitter"
	SourceReddit  Source = "reddit"
	SourceGoogle  Source = "google"
	SourceNewsAPI Source = "newsapi"
)

// Engagement holds the raw engagement signals a provider reported for an
// item. Absent signals stay zero.
type Engagement struct {
	Likes    int64 `json:"likes,omitempty"`
	Shares   int64 `json:"shares,omitempty"`
	Replies  int64 `json:"replies,omitempty"`
	Comments int64 `json:"comments,omitempty"`
}

// RawItem is the unprocessed record one adapter produced for a query. It is
// immutable once returned.
type RawItem struct {
	Source      Source      `json:"source"`
	Title       string      `json:"title"`
	Body        string      `json:"body,omitempty"`
	URL         string      `json:"url"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
	Engagement  *Engagement `json:"engagement,omitempty"`
}

// Entity is a named entity extracted from item text.
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Enrichment is the cached output of enriching one piece of content.
type Enrichment struct {
	Summary  string   `json:"summary"`
	Entities []Entity `json:"entities,omitempty"`
}

// EnrichedItem is a RawItem plus generated summary, extracted entities and a
// rank score. The embedded RawItem is never mutated.
type EnrichedItem struct {
	RawItem
	Summary   string   `json:"summary"`
	Entities  []Entity `json:"entities,omitempty"`
	RankScore float64  `json:"rank_score"`
}

// InputKind is the routing decision for a user's text.
type InputKind string

const (
	KindConversation InputKind = "conversation"
	KindQuery        InputKind = "query"
	KindWebSearch    InputKind = "web_search"
	KindAnalysis     InputKind = "analysis"
)

// Turn roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry in a session's conversation history.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// AggregatedResult is the response for one submitted input. For the
// conversation branch only Response is set; for pipeline branches Results
// and GeneralSummary are set (Results may be empty, GeneralSummary never).
type AggregatedResult struct {
	Query          string         `json:"query"`
	Kind           InputKind      `json:"type"`
	Results        []EnrichedItem `json:"results,omitempty"`
	GeneralSummary string         `json:"general_summary,omitempty"`
	Response       string         `json:"response,omitempty"`
	SessionID      string         `json:"session_id"`
}

// ProviderErrorKind classifies how an adapter call failed.
type ProviderErrorKind string

const (
	ProviderErrNetwork ProviderErrorKind = "network"
	ProviderErrTimeout ProviderErrorKind = "timeout"
	ProviderErrStatus  ProviderErrorKind = "status"
	ProviderErrParse   ProviderErrorKind = "parse"
)

// ProviderError is a typed adapter failure. The aggregator recovers it
// locally (the provider contributes nothing) but keeps the kind for logs
// and metrics.
type ProviderError struct {
	Provider Source
	Kind     ProviderErrorKind
	Status   int // HTTP status for Kind == ProviderErrStatus
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Kind == ProviderErrStatus {
		return fmt.Sprintf("%s: %s (%d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth retrying: network and
// timeout errors always, status errors only for 429 and 5xx. Parse
// failures are permanent.
func (e *ProviderError) Transient() bool {
	switch e.Kind {
	case ProviderErrNetwork, ProviderErrTimeout:
		return true
	case ProviderErrStatus:
		return e.Status == 429 || e.Status >= 500
	}
	return false
}

// EnrichmentError is a typed failure from the enrichment service. It is
// always recovered locally (truncation or extractive fallback) and never
// fails a request.
type EnrichmentError struct {
	Op        string
	Status    int // HTTP status when the service answered
	Temporary bool
	Err       error
}

func (e *EnrichmentError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("enrichment %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("enrichment %s: %v", e.Op, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

func (e *EnrichmentError) Transient() bool { return e.Temporary }
