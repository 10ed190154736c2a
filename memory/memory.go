package memory

import (
	"context"
	"time"
)

// Memory is one stored memory. Implementations control their own content
// structure and how they render for prompt injection.
type Memory interface {
	ID() string
	OwnerID() string
	Type() string
	CreatedAt() time.Time

	// Content returns the memory-specific payload for serialization.
	Content() map[string]string

	// Format renders this memory for prompt injection.
	Format(ctx FormatContext) string

	Embedding() []float32
	SetEmbedding([]float32)
}

// FormatContext gives Format implementations room to adapt output.
type FormatContext struct {
	UserID    string
	Query     string
	MaxLength int
}

// Store is the vector storage backend.
type Store interface {
	// Store saves a memory. The embedding must be set beforehand.
	Store(ctx context.Context, mem Memory) error

	// Query returns up to limit memories for a user, most similar first.
	Query(ctx context.Context, userID string, embedding []float32, limit int) ([]Memory, error)

	Close() error
}

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Manager orchestrates memory operations for the orchestrator: it decides
// which exchanges are worth storing and how retrieved memories are
// formatted.
type Manager interface {
	// Retrieve returns a formatted block of memories relevant to the
	// user's message, or "" when there is nothing useful.
	Retrieve(ctx context.Context, userID string, userMessage string) (string, error)

	// RecordExchange stores one conversational exchange.
	RecordExchange(ctx context.Context, userID string, userMessage, assistantReply string) error
}
