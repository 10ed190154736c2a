package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/skinbuddy/concierge/agents"
	"github.com/skinbuddy/concierge/catalog"
	"github.com/skinbuddy/concierge/evidence"
	"github.com/skinbuddy/concierge/internal/config"
	"github.com/skinbuddy/concierge/llm"
	"github.com/skinbuddy/concierge/memory"
	geminiembed "github.com/skinbuddy/concierge/memory/embedder/gemini"
	chromemstore "github.com/skinbuddy/concierge/memory/store/chromem"
	"github.com/skinbuddy/concierge/profile"
	"github.com/skinbuddy/concierge/reminder"
	"github.com/skinbuddy/concierge/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("SKINBUDDY_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, cleanup, err := newProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create LLM provider: %v", err)
	}
	defer cleanup()

	cat, err := catalog.Load(cfg.Data.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	evidenceIndex, err := evidence.Load(cfg.Data.EvidencePath)
	if err != nil {
		log.Fatalf("Failed to load evidence: %v", err)
	}

	profiles, err := profile.NewStore(cfg.Data.ProfilesPath)
	if err != nil {
		log.Fatalf("Failed to open profile store: %v", err)
	}

	reminders, err := reminder.NewStore(cfg.Data.RemindersPath)
	if err != nil {
		log.Fatalf("Failed to open reminder store: %v", err)
	}

	cal := newCalendar(ctx, cfg)
	mem := newMemory(ctx, cfg, evidenceIndex)

	orchestrator := agents.NewOrchestrator(agents.Deps{
		LLM:      provider,
		Safety:   agents.NewSafety(nil),
		Intake:   agents.NewIntake(profiles),
		Products: agents.NewProductLookup(provider, cat),
		Routines: agents.NewRoutineBuilder(cat),
		Evidence: agents.NewEvidenceAgent(provider, evidenceIndex),
		Calendar: agents.NewCalendarAgent(provider, reminders, cal),
		Memory:   mem,
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      server.New(orchestrator).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket sessions outlive any write timeout.
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting SkinBuddy concierge on port %d", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
	log.Println("Server stopped")
}

func newProvider(ctx context.Context, cfg *config.Config) (llm.Provider, func(), error) {
	switch cfg.LLM.Provider {
	case "claude":
		p, err := llm.NewClaude(cfg.LLM.AnthropicAPIKey, cfg.LLM.Model)
		return p, func() {}, err
	default:
		p, err := llm.NewGemini(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.Model)
		if err != nil {
			return nil, func() {}, err
		}
		return p, func() { p.Close() }, nil
	}
}

func newCalendar(ctx context.Context, cfg *config.Config) reminder.Calendar {
	if cfg.Google.CredentialsFile == "" {
		log.Println("No Google credentials configured; reminders stay local")
		return reminder.NoopCalendar{}
	}
	cal, err := reminder.NewGoogleCalendar(ctx, reminder.GoogleConfig{
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       cfg.Google.TokenFile,
		CalendarID:      cfg.Google.CalendarID,
		Timezone:        cfg.Google.Timezone,
	})
	if err != nil {
		log.Printf("Google Calendar unavailable (%v); reminders stay local", err)
		return reminder.NoopCalendar{}
	}
	return cal
}

// newMemory builds the conversation memory manager and, when an embedder
// is available, upgrades the evidence index with semantic search. Both
// need the Gemini embedding API; without a key they are skipped.
func newMemory(ctx context.Context, cfg *config.Config, evidenceIndex *evidence.Index) memory.Manager {
	if !cfg.Memory.Enabled {
		return nil
	}
	if cfg.LLM.GeminiAPIKey == "" {
		log.Println("Memory disabled: no Gemini API key for embeddings")
		return nil
	}

	embedder, err := geminiembed.New(ctx, cfg.LLM.GeminiAPIKey, "")
	if err != nil {
		log.Printf("Memory disabled: %v", err)
		return nil
	}

	if err := evidenceIndex.EnableSemantic(ctx, embedder); err != nil {
		log.Printf("Semantic evidence search unavailable: %v", err)
	}

	store, err := chromemstore.New()
	if err != nil {
		log.Printf("Memory disabled: %v", err)
		return nil
	}
	return memory.NewSimpleManager(store, embedder, &memory.Config{
		Enabled:       true,
		RetrieveLimit: cfg.Memory.RetrieveLimit,
		MinMessageLen: memory.DefaultConfig.MinMessageLen,
	})
}
