package model

import "time"

// Sort criteria accepted by the combiner.
const (
	SortByPrice  = "price"
	SortByRating = "rating"
	SortByValue  = "value"
)

// ResultSet groups the entities one source platform returned for a single
// search, plus the error if that source failed. An empty or failed set is
// valid combiner input: one platform going down must not block the rest.
type ResultSet[T Rankable] struct {
	Platform  string     `json:"platform"`
	Results   []T        `json:"results"`
	Error     *string    `json:"error,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// SourceCount reports per-platform result counts for observability.
type SourceCount struct {
	Platform string  `json:"platform"`
	Found    int     `json:"found"`
	Error    *string `json:"error,omitempty"`
}

// SearchMetadata describes a combine/search invocation: what each source
// contributed, how many entities survived the price filter, and whether
// the invocation as a whole produced anything usable. Failure travels in
// this struct rather than as an error so callers can always distinguish
// "show results" from "explain failure".
type SearchMetadata struct {
	SearchID      string        `json:"search_id"`
	Timestamp     time.Time     `json:"timestamp"`
	Sources       []SourceCount `json:"sources"`
	TotalFound    int           `json:"total_found"`
	FilteredCount int           `json:"filtered_count"`
	Returned      int           `json:"returned"`
	Success       bool          `json:"success"`
	Error         *string       `json:"error,omitempty"`
	TookMs        int64         `json:"took_ms"`
}

// CombinedResult is a ranked, size-capped merge of several result sets.
type CombinedResult[T Rankable] struct {
	Results  []T            `json:"results"`
	Metadata SearchMetadata `json:"metadata"`
}

// PropertySearchRequest is the orchestration-level property search input.
type PropertySearchRequest struct {
	Destination  string   `json:"destination" binding:"required"`
	CheckIn      string   `json:"check_in,omitempty"`
	CheckOut     string   `json:"check_out,omitempty"`
	Guests       int      `json:"guests,omitempty"`
	PriceCeiling *float64 `json:"price_ceiling,omitempty"`
	SortBy       string   `json:"sort_by,omitempty"`
	MaxResults   int      `json:"max_results,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
}

// CombineRequest carries caller-supplied, already-fetched result sets
// for pure combination.
type CombineRequest struct {
	Sets         []ResultSet[PropertyResult] `json:"sets" binding:"required"`
	PriceCeiling *float64                    `json:"price_ceiling,omitempty"`
	SortBy       string                      `json:"sort_by,omitempty"`
	MaxResults   int                         `json:"max_results,omitempty"`
}

// ExtractRequest carries raw page text for streaming listing
// extraction.
type ExtractRequest struct {
	Kind     string `json:"kind" binding:"required"` // property, flight, restaurant, attraction
	Platform string `json:"platform" binding:"required"`
	Text     string `json:"text" binding:"required"`
}

// SearchLog is the persisted record of one search invocation, written
// asynchronously after the response is served.
type SearchLog struct {
	ID          int       `db:"id" json:"id"`
	SearchID    string    `db:"search_id" json:"search_id"`
	Kind        string    `db:"kind" json:"kind"` // property, flight, restaurant, attraction
	Destination string    `db:"destination" json:"destination"`
	Request     JSONMap   `db:"request" json:"request,omitempty"`
	TotalFound  int       `db:"total_found" json:"total_found"`
	Returned    int       `db:"returned" json:"returned"`
	Success     bool      `db:"success" json:"success"`
	Error       *string   `db:"error" json:"error,omitempty"`
	TookMs      int64     `db:"took_ms" json:"took_ms"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FeedbackRequest records a user action against an earlier search.
type FeedbackRequest struct {
	SearchID string `json:"search_id" binding:"required"`
	Entity   string `json:"entity" binding:"required"`
	Action   string `json:"action" binding:"required"` // click, save, book
}

// FeedbackResponse acknowledges a feedback submission.
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// EmbeddingBatchRequest is a batch embedding update for cached listings.
type EmbeddingBatchRequest struct {
	Embeddings []EmbeddingItem `json:"embeddings" binding:"required"`
}

// EmbeddingItem pairs one cached listing with its embedding vector.
type EmbeddingItem struct {
	ListingID string    `json:"listing_id" binding:"required"`
	Embedding []float32 `json:"embedding" binding:"required"`
	Text      string    `json:"text,omitempty"`
}

// EmbeddingBatchResponse reports per-item success of a batch update.
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
