package agents

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skinbuddy/concierge/catalog"
	"github.com/skinbuddy/concierge/evidence"
	"github.com/skinbuddy/concierge/llm"
	"github.com/skinbuddy/concierge/profile"
	"github.com/skinbuddy/concierge/reminder"
)

// llmStub scripts completions by inspecting the request.
type llmStub func(req llm.Request) (string, error)

func (f llmStub) Complete(_ context.Context, req llm.Request) (string, error) {
	return f(req)
}

// scriptedLLM routes each known prompt family to a canned JSON answer.
func scriptedLLM(req llm.Request) (string, error) {
	switch {
	case strings.Contains(req.System, "catalog search plan"):
		return `{"columns_to_search":["product_type"],"patterns":{"product_type":["serum"]},"reason":"serum request"}`, nil

	case strings.Contains(req.System, "classify a skincare reminder"):
		prompt := strings.ToLower(req.Prompt)
		if strings.Contains(prompt, "delete") {
			return `{"intent":"delete","all_reminders":false}`, nil
		}
		if strings.Contains(prompt, "list") {
			return `{"intent":"list"}`, nil
		}
		return `{"intent":"create","title_hint":"Apply sunscreen","datetime_text":"9pm","recurrence":"DAILY"}`, nil

	case strings.Contains(req.System, "match a deletion request"):
		return `{"matches":["Apply sunscreen"],"confidence":"high","explanation":"Title named directly."}`, nil

	case strings.Contains(req.System, "summarize skincare research"):
		return `{"summary":"Consistent reductions in sebum across trials.","strength":"strong","tags":["acne"]}`, nil

	case strings.Contains(req.System, "follow-up question"):
		return "The Niacinamide 10% Serum is the cheapest of the two.", nil
	}
	return "", fmt.Errorf("unscripted request: %q", req.System)
}

type fakeCalendar struct {
	created []string
	deleted []string
}

func (f *fakeCalendar) CreateEvent(_ context.Context, title, _ string, _ time.Time, _ string) (string, error) {
	f.created = append(f.created, title)
	return fmt.Sprintf("evt_%d", len(f.created)), nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, eventID string) error {
	f.deleted = append(f.deleted, eventID)
	return nil
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Product{
		{Name: "Gentle Foam Cleanser", URL: "http://shop/1", Type: "cleanser", Ingredients: "glycerin", Price: "low"},
		{Name: "Niacinamide 10% Serum", URL: "http://shop/2", Type: "serum", Ingredients: "niacinamide, zinc", Price: "low"},
		{Name: "Retinol Night Serum", URL: "http://shop/3", Type: "serum", Ingredients: "retinol", Price: "high"},
		{Name: "Daily SPF 50", URL: "http://shop/4", Type: "sunscreen", Ingredients: "zinc oxide", Price: "medium"},
		{Name: "Rich Repair Cream", URL: "http://shop/5", Type: "moisturizer", Ingredients: "ceramide", Price: "medium"},
	})
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeCalendar, *reminder.Store) {
	t.Helper()
	dir := t.TempDir()

	profiles, err := profile.NewStore(filepath.Join(dir, "profiles.json"))
	if err != nil {
		t.Fatalf("Failed to create profile store: %v", err)
	}
	reminders, err := reminder.NewStore(filepath.Join(dir, "reminders.json"))
	if err != nil {
		t.Fatalf("Failed to create reminder store: %v", err)
	}

	cal := &fakeCalendar{}
	cat := testCatalog()
	provider := llmStub(scriptedLLM)
	index := evidence.New(map[string][]evidence.Chunk{
		"niacinamide": {{Title: "Niacinamide RCT", URL: "http://doi/1", Snippet: "Reduced sebum", Tags: []string{"acne"}}},
	})

	o := NewOrchestrator(Deps{
		LLM:      provider,
		Safety:   NewSafety(nil),
		Intake:   NewIntake(profiles),
		Products: NewProductLookup(provider, cat),
		Routines: NewRoutineBuilder(cat),
		Evidence: NewEvidenceAgent(provider, index),
		Calendar: NewCalendarAgent(provider, reminders, cal),
	})
	return o, cal, reminders
}

func TestHandleSafetyIntercept(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	reply, err := o.Handle(context.Background(), "u1", "what can I use while pregnant?", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentUnsafe {
		t.Errorf("Intent = %q, want %q", reply.Intent, IntentUnsafe)
	}
	if !strings.Contains(reply.Message, "dermatologist") {
		t.Errorf("Unexpected safety message: %q", reply.Message)
	}
}

func TestHandleProductQuery(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	reply, err := o.Handle(context.Background(), "u1", "recommend a serum for me", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentProduct {
		t.Fatalf("Intent = %q, want %q", reply.Intent, IntentProduct)
	}
	if len(reply.Products.Products) != 2 {
		t.Errorf("Expected both serums, got %+v", reply.Products.Products)
	}
}

func TestHandleEvidenceQuery(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	reply, err := o.Handle(context.Background(), "u1", "does niacinamide actually work?", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentEvidence {
		t.Fatalf("Intent = %q, want %q", reply.Intent, IntentEvidence)
	}
	if reply.Evidence.Strength != "strong" {
		t.Errorf("Strength = %q", reply.Evidence.Strength)
	}
	if len(reply.Evidence.Sources) != 1 {
		t.Errorf("Sources = %+v", reply.Evidence.Sources)
	}
}

func TestHandleTretinoinReachesEvidence(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	reply, err := o.Handle(context.Background(), "u1", "is there research showing tretinoin works?", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentEvidence {
		t.Fatalf("Intent = %q, want %q", reply.Intent, IntentEvidence)
	}
	if reply.Evidence.Ingredient != "tretinoin" {
		t.Errorf("Ingredient = %q", reply.Evidence.Ingredient)
	}
}

func TestHandleRoutineQuery(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	reply, err := o.Handle(context.Background(), "u1", "build me a morning routine", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentRoutine {
		t.Fatalf("Intent = %q, want %q", reply.Intent, IntentRoutine)
	}
	if len(reply.Routine.Steps) != 4 {
		t.Errorf("Expected 4 AM steps, got %+v", reply.Routine.Steps)
	}
	for _, st := range reply.Routine.Steps {
		if st.Time != "AM" {
			t.Errorf("Morning routine contains %s step", st.Time)
		}
	}
}

func TestHandleCalendarCreateFlow(t *testing.T) {
	o, cal, reminders := newTestOrchestrator(t)
	ctx := context.Background()

	reply, err := o.Handle(ctx, "u1", "remind me to apply sunscreen at 9pm", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentCalendarPlan {
		t.Fatalf("Intent = %q, want %q", reply.Intent, IntentCalendarPlan)
	}
	if !reply.Plan.NeedsConfirmation || reply.Plan.Create == nil {
		t.Fatalf("Unexpected plan: %+v", reply.Plan)
	}
	if got, _ := reminders.List(); len(got) != 0 {
		t.Fatalf("Plan must not create reminders yet, got %d", len(got))
	}

	confirm, err := o.Handle(ctx, "u1", "yes", nil)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if confirm.Intent != IntentConfirmation {
		t.Fatalf("Intent = %q, want %q", confirm.Intent, IntentConfirmation)
	}
	if confirm.Calendar.Status != "created" {
		t.Errorf("Status = %q", confirm.Calendar.Status)
	}

	stored, err := reminders.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(stored) != 1 || stored[0].Title != "Apply sunscreen" {
		t.Errorf("Unexpected stored reminders: %+v", stored)
	}
	if stored[0].Recurrence != "DAILY" {
		t.Errorf("Recurrence = %q", stored[0].Recurrence)
	}
	if len(cal.created) != 1 {
		t.Errorf("Calendar created %d events", len(cal.created))
	}
}

func TestHandleCalendarCancel(t *testing.T) {
	o, cal, reminders := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := o.Handle(ctx, "u1", "remind me to apply sunscreen at 9pm", nil); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	reply, err := o.Handle(ctx, "u1", "no", nil)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if reply.Calendar.Status != "cancelled" {
		t.Errorf("Status = %q", reply.Calendar.Status)
	}
	if got, _ := reminders.List(); len(got) != 0 {
		t.Errorf("Cancelled plan still created reminders")
	}
	if len(cal.created) != 0 {
		t.Errorf("Cancelled plan still hit the calendar")
	}
}

func TestHandleCalendarDeleteFlow(t *testing.T) {
	o, cal, reminders := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := reminders.Add(reminder.Reminder{Title: "Apply sunscreen", GoogleEventID: "evt_9"}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	reply, err := o.Handle(ctx, "u1", "delete my sunscreen reminder", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentCalendarPlan || len(reply.Plan.Delete.Matches) != 1 {
		t.Fatalf("Unexpected plan: %+v", reply.Plan)
	}

	confirm, err := o.Handle(ctx, "u1", "yes", nil)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if confirm.Calendar.Status != "deleted" {
		t.Errorf("Status = %q", confirm.Calendar.Status)
	}
	if got, _ := reminders.List(); len(got) != 0 {
		t.Errorf("Reminder not deleted: %+v", got)
	}
	if len(cal.deleted) != 1 || cal.deleted[0] != "evt_9" {
		t.Errorf("Calendar deletions = %v", cal.deleted)
	}
}

func TestHandleCalendarListExecutesImmediately(t *testing.T) {
	o, _, reminders := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := reminders.Add(reminder.Reminder{Title: "Apply sunscreen"}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	reply, err := o.Handle(ctx, "u1", "list my skincare reminders", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentCalendar {
		t.Fatalf("Intent = %q, want %q", reply.Intent, IntentCalendar)
	}
	if len(reply.Calendar.Reminders) != 1 {
		t.Errorf("Reminders = %+v", reply.Calendar.Reminders)
	}
}

func TestHandlePendingPlanExpires(t *testing.T) {
	o, _, reminders := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := o.Handle(ctx, "u1", "remind me to apply sunscreen at 9pm", nil); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	o.now = func() time.Time { return time.Now().Add(planExpiry + time.Minute) }

	reply, err := o.Handle(ctx, "u1", "yes", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentConfirmation || !strings.Contains(reply.Message, "nothing") {
		t.Errorf("Expired plan should leave nothing to confirm, got %q / %q", reply.Intent, reply.Message)
	}
	if got, _ := reminders.List(); len(got) != 0 {
		t.Errorf("Expired plan created reminders")
	}
}

func TestHandleBareYesWithoutPlan(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	reply, err := o.Handle(context.Background(), "u1", "yes", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentConfirmation || !strings.Contains(reply.Message, "nothing") {
		t.Errorf("Got %q / %q", reply.Intent, reply.Message)
	}
}

func TestHandleFollowupAfterProducts(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := o.Handle(ctx, "u1", "recommend a serum for me", nil); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	reply, err := o.Handle(ctx, "u1", "which one is cheapest?", nil)
	if err != nil {
		t.Fatalf("Followup failed: %v", err)
	}
	if reply.Intent != IntentFollowupProducts {
		t.Fatalf("Intent = %q, want %q", reply.Intent, IntentFollowupProducts)
	}
	if !strings.Contains(reply.Message, "Niacinamide") {
		t.Errorf("Unexpected followup answer: %q", reply.Message)
	}
}

func TestHandleFollowupRoutineKeepsRoutineContext(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := o.Handle(ctx, "u1", "build me a morning routine", nil); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	// lastProducts is set after lastRoutine, so products must not win.
	if _, err := o.Handle(ctx, "u1", "recommend a serum for me", nil); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	reply, err := o.Handle(ctx, "u1", "tell me more about that routine", nil)
	if err != nil {
		t.Fatalf("Followup failed: %v", err)
	}
	if reply.Intent != IntentFollowupRoutine {
		t.Errorf("Intent = %q, want %q", reply.Intent, IntentFollowupRoutine)
	}
}

func TestHandleFollowupWithoutState(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	reply, err := o.Handle(context.Background(), "u1", "which one is cheapest?", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentFollowupProducts {
		t.Fatalf("Intent = %q, want %q", reply.Intent, IntentFollowupProducts)
	}
	if !strings.Contains(reply.Message, "previous answer") {
		t.Errorf("Unexpected message: %q", reply.Message)
	}
}

func TestHandleConcurrentTurnsSameUser(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := o.Handle(ctx, "u1", "remind me to apply sunscreen at 9pm", nil); err != nil {
				t.Errorf("Handle failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(o.History("u1")); got != 16 {
		t.Errorf("History length = %d, want 16", got)
	}
}

func TestHandleProfileIntake(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	answers := []string{"Mia", "29", "oily", "acne and aging", "just cleanser", "low"}
	i := 0
	ask := func(context.Context, string) (string, error) {
		a := answers[i]
		i++
		return a, nil
	}

	reply, err := o.Handle(ctx, "u1", "set up my profile", ask)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentProfile {
		t.Fatalf("Intent = %q, want %q", reply.Intent, IntentProfile)
	}
	if i != len(profile.Questions) {
		t.Errorf("Asked %d questions, want %d", i, len(profile.Questions))
	}
	if !strings.Contains(reply.Message, "Mia") || !strings.Contains(reply.Message, "oily") {
		t.Errorf("Unexpected profile message: %q", reply.Message)
	}
}

func TestHandleUnknownQuery(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	reply, err := o.Handle(context.Background(), "u1", "hello there", nil)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Intent != IntentNone {
		t.Errorf("Intent = %q, want %q", reply.Intent, IntentNone)
	}
}

func TestHistoryRecordsTurns(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := o.Handle(ctx, "u1", "recommend a serum for me", nil); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	history := o.History("u1")
	if len(history) != 2 {
		t.Fatalf("History length = %d", len(history))
	}
	if history[0].Role != "user" || history[1].Role != "assistant" {
		t.Errorf("Unexpected roles: %+v", history)
	}
}
