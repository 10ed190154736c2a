package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExchangeMemory stores a single conversational exchange.
type ExchangeMemory struct {
	id        string
	ownerID   string
	createdAt time.Time
	embedding []float32

	UserMessage    string
	AssistantReply string
}

// NewExchangeMemory creates an ExchangeMemory for a user.
func NewExchangeMemory(ownerID, userMessage, assistantReply string) *ExchangeMemory {
	return &ExchangeMemory{
		id:             uuid.New().String(),
		ownerID:        ownerID,
		createdAt:      time.Now(),
		UserMessage:    userMessage,
		AssistantReply: assistantReply,
	}
}

// NewExchangeMemoryFromStorage rebuilds an ExchangeMemory from stored data.
func NewExchangeMemoryFromStorage(id, ownerID string, createdAt time.Time, embedding []float32, userMessage, assistantReply string) *ExchangeMemory {
	return &ExchangeMemory{
		id:             id,
		ownerID:        ownerID,
		createdAt:      createdAt,
		embedding:      embedding,
		UserMessage:    userMessage,
		AssistantReply: assistantReply,
	}
}

func (e *ExchangeMemory) ID() string           { return e.id }
func (e *ExchangeMemory) OwnerID() string      { return e.ownerID }
func (e *ExchangeMemory) Type() string         { return "exchange" }
func (e *ExchangeMemory) CreatedAt() time.Time { return e.createdAt }

func (e *ExchangeMemory) Content() map[string]string {
	return map[string]string{
		"user":      e.UserMessage,
		"assistant": e.AssistantReply,
	}
}

// Format renders the exchange for prompt injection, truncating both sides
// to fit the allotted space.
func (e *ExchangeMemory) Format(ctx FormatContext) string {
	half := ctx.MaxLength / 2
	if half < 40 {
		half = 40
	}
	return fmt.Sprintf("User: %s\nAssistant: %s",
		truncate(e.UserMessage, half), truncate(e.AssistantReply, half))
}

// FormatForEmbedding returns the text representation used for embedding.
func (e *ExchangeMemory) FormatForEmbedding() string {
	return e.UserMessage + "\n" + e.AssistantReply
}

func (e *ExchangeMemory) Embedding() []float32       { return e.embedding }
func (e *ExchangeMemory) SetEmbedding(emb []float32) { e.embedding = emb }

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
