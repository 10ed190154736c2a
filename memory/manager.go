package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Config holds SimpleManager configuration.
type Config struct {
	// Enabled toggles the memory system on/off.
	Enabled bool

	// RetrieveLimit is the maximum memories injected per turn.
	RetrieveLimit int

	// MinMessageLen filters out exchanges too short to be worth keeping
	// ("yes", "no", greetings).
	MinMessageLen int
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{
	Enabled:       true,
	RetrieveLimit: 5,
	MinMessageLen: 12,
}

// SimpleManager is the built-in Manager implementation: embed every
// non-trivial exchange, retrieve by similarity, format as a plain block.
type SimpleManager struct {
	store    Store
	embedder Embedder
	config   *Config
}

// NewSimpleManager creates a SimpleManager.
func NewSimpleManager(store Store, embedder Embedder, config *Config) *SimpleManager {
	if config == nil {
		config = DefaultConfig
	}
	return &SimpleManager{store: store, embedder: embedder, config: config}
}

// Retrieve finds relevant past exchanges and returns a formatted block.
func (m *SimpleManager) Retrieve(ctx context.Context, userID string, userMessage string) (string, error) {
	if !m.config.Enabled {
		return "", nil
	}

	embedding, err := m.embedder.Embed(ctx, userMessage)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	memories, err := m.store.Query(ctx, userID, embedding, m.config.RetrieveLimit)
	if err != nil {
		return "", fmt.Errorf("query store: %w", err)
	}
	log.Printf("[MEMORY] Retrieved %d memories for query: %q", len(memories), truncate(userMessage, 50))
	if len(memories) == 0 {
		return "", nil
	}

	maxLengthPerMemory := 2000 / len(memories)
	if maxLengthPerMemory < 100 {
		maxLengthPerMemory = 100
	}

	var parts []string
	parts = append(parts, "=== RELEVANT PAST CONVERSATION ===")
	for i, mem := range memories {
		formatted := mem.Format(FormatContext{
			UserID:    userID,
			Query:     userMessage,
			MaxLength: maxLengthPerMemory,
		})
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, formatted))
	}
	return strings.Join(parts, "\n"), nil
}

// RecordExchange stores one conversational exchange, skipping trivial ones.
func (m *SimpleManager) RecordExchange(ctx context.Context, userID string, userMessage, assistantReply string) error {
	if !m.config.Enabled {
		return nil
	}
	if len(strings.TrimSpace(userMessage)) < m.config.MinMessageLen {
		return nil
	}

	mem := NewExchangeMemory(userID, userMessage, assistantReply)
	embedding, err := m.embedder.Embed(ctx, mem.FormatForEmbedding())
	if err != nil {
		return fmt.Errorf("embed exchange: %w", err)
	}
	mem.SetEmbedding(embedding)

	if err := m.store.Store(ctx, mem); err != nil {
		return fmt.Errorf("store exchange: %w", err)
	}
	log.Printf("[MEMORY] Stored exchange for user=%s", userID)
	return nil
}
