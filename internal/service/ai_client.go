package service

import (
	"context"

	"tripplanner/internal/model"
)

// LLMClient is the interface for AI service providers. Providers turn
// scraped page text into structured listing records and generate
// embeddings for cached listings.
type LLMClient interface {
	// ExtractListings parses raw page text from a search provider into
	// loose listing records for the given entity kind
	// ("property", "flight", "restaurant", "attraction"). The platform
	// tag is stamped onto every returned record.
	ExtractListings(ctx context.Context, kind, platform, pageText string) ([]model.ListingRecord, error)

	// ExtractListingsStream is the streaming variant. The callback
	// receives (thinkingContent, regularContent) for each chunk.
	ExtractListingsStream(ctx context.Context, kind, platform, pageText string, callback func(thinking, content string) error) ([]model.ListingRecord, error)

	// CreateEmbeddings generates embeddings for texts
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// IsEnabled returns whether the AI client is configured and ready
	IsEnabled() bool
}

// StreamChunk represents a generic streaming response chunk
type StreamChunk struct {
	// Regular content (always present in streaming)
	Content string

	// Thinking/reasoning content (provider-specific, e.g., DeepSeek)
	ThinkingContent string

	// Role (assistant, user, system)
	Role string

	// Whether this is the final chunk
	Done bool

	// Provider-specific metadata
	Metadata map[string]interface{}
}

// AIListingResponse is the envelope the extraction prompt asks the
// model to produce: an array of flat key/value listing objects.
type AIListingResponse struct {
	Listings []map[string]any `json:"listings"`
}

// Ensure OpenAIClient implements LLMClient
var _ LLMClient = (*OpenAIClient)(nil)
