// Package chromem implements the memory.Store interface on top of
// chromem-go, a pure Go embedded vector database.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/skinbuddy/concierge/memory"
)

// Store wraps chromem-go for vector storage. Each user gets their own
// collection for namespace isolation.
type Store struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

// New creates a new chromem-backed store.
func New() (*Store, error) {
	return &Store{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}, nil
}

func (s *Store) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[userID]
	s.mu.RUnlock()
	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, exists := s.collections[userID]; exists {
		return col, nil
	}

	name := "user_" + userID
	if userID == "" {
		name = "global"
	}
	col, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.collections[userID] = col
	return col, nil
}

// Store saves a memory with its embedding.
func (s *Store) Store(ctx context.Context, mem memory.Memory) error {
	col, err := s.getOrCreateCollection(mem.OwnerID())
	if err != nil {
		return err
	}

	content, err := json.Marshal(mem.Content())
	if err != nil {
		return fmt.Errorf("serialize memory: %w", err)
	}

	doc := chromem.Document{
		ID:        mem.ID(),
		Content:   string(content),
		Embedding: mem.Embedding(),
		Metadata: map[string]string{
			"owner_id":   mem.OwnerID(),
			"type":       mem.Type(),
			"created_at": mem.CreatedAt().UTC().Format(time.RFC3339),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query retrieves memories by vector similarity, highest first.
func (s *Store) Query(ctx context.Context, userID string, embedding []float32, limit int) ([]memory.Memory, error) {
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return nil, err
	}

	where := map[string]string{"owner_id": userID}

	// chromem requires nResults <= collection size; retry with smaller
	// limits until it fits or the collection turns out to be empty.
	var results []chromem.Result
	for currentLimit := limit; currentLimit >= 1; currentLimit-- {
		results, err = col.QueryEmbedding(ctx, embedding, currentLimit, where, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if currentLimit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	var memories []memory.Memory
	for i, result := range results {
		mem, err := deserialize(result)
		if err != nil {
			log.Printf("[CHROMEM] Skipping result #%d: %v", i+1, err)
			continue
		}
		memories = append(memories, mem)
	}
	return memories, nil
}

// Close releases resources. chromem keeps everything in memory, so there
// is nothing to release.
func (s *Store) Close() error {
	return nil
}

func deserialize(result chromem.Result) (memory.Memory, error) {
	if result.Metadata["type"] != "exchange" {
		return nil, fmt.Errorf("unknown memory type %q", result.Metadata["type"])
	}

	var content map[string]string
	if err := json.Unmarshal([]byte(result.Content), &content); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	createdAt, _ := time.Parse(time.RFC3339, result.Metadata["created_at"])

	return memory.NewExchangeMemoryFromStorage(
		result.ID,
		result.Metadata["owner_id"],
		createdAt,
		result.Embedding,
		content["user"],
		content["assistant"],
	), nil
}

func isInsufficientDocsError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "nResults")
}
