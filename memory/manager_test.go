package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/skinbuddy/concierge/memory"
	"github.com/skinbuddy/concierge/memory/embedder/mock"
	"github.com/skinbuddy/concierge/memory/store/chromem"
)

func newTestManager(t *testing.T, cfg *memory.Config) *memory.SimpleManager {
	t.Helper()
	store, err := chromem.New()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return memory.NewSimpleManager(store, mock.New(), cfg)
}

func TestSimpleManager_RecordAndRetrieve(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, nil)

	err := manager.RecordExchange(ctx, "user123",
		"what serum should I use for acne prone skin",
		"Found 2 products. Top picks: Niacinamide 10% Serum.")
	if err != nil {
		t.Fatalf("Failed to record exchange: %v", err)
	}

	block, err := manager.Retrieve(ctx, "user123", "what serum should I use for acne prone skin")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if !strings.Contains(block, "RELEVANT PAST CONVERSATION") {
		t.Errorf("Expected formatted header, got: %q", block)
	}
	if !strings.Contains(block, "Niacinamide") {
		t.Errorf("Expected past reply in block, got: %q", block)
	}
}

func TestSimpleManager_SkipsTrivialMessages(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, nil)

	if err := manager.RecordExchange(ctx, "user123", "yes", "Done."); err != nil {
		t.Fatalf("RecordExchange failed: %v", err)
	}

	block, err := manager.Retrieve(ctx, "user123", "what did I confirm")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if block != "" {
		t.Errorf("Expected nothing stored for trivial message, got: %q", block)
	}
}

func TestSimpleManager_UserIsolation(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, nil)

	err := manager.RecordExchange(ctx, "alice",
		"remind me about retinol every evening",
		"Done, reminder set.")
	if err != nil {
		t.Fatalf("RecordExchange failed: %v", err)
	}

	block, err := manager.Retrieve(ctx, "bob", "remind me about retinol every evening")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if block != "" {
		t.Errorf("bob retrieved alice's memory: %q", block)
	}
}

func TestSimpleManager_Disabled(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, &memory.Config{Enabled: false})

	err := manager.RecordExchange(ctx, "user123",
		"what serum should I use for acne prone skin", "reply")
	if err != nil {
		t.Fatalf("RecordExchange failed: %v", err)
	}

	block, err := manager.Retrieve(ctx, "user123", "anything")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if block != "" {
		t.Errorf("Disabled manager returned: %q", block)
	}
}

func TestExchangeMemoryFormat(t *testing.T) {
	mem := memory.NewExchangeMemory("u1", "a question about retinol", "an answer about retinol")

	formatted := mem.Format(memory.FormatContext{MaxLength: 2000})
	if !strings.Contains(formatted, "User:") || !strings.Contains(formatted, "Assistant:") {
		t.Errorf("Unexpected format: %q", formatted)
	}

	long := strings.Repeat("retinol ", 50)
	truncated := memory.NewExchangeMemory("u1", long, long).Format(memory.FormatContext{MaxLength: 100})
	if !strings.Contains(truncated, "...") {
		t.Errorf("Expected truncation marker in: %q", truncated)
	}
	if len(truncated) >= 2*len(long) {
		t.Errorf("Format did not truncate, got %d chars", len(truncated))
	}
}
