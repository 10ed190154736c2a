package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/skinbuddy/concierge/core"
	"github.com/skinbuddy/concierge/evidence"
	"github.com/skinbuddy/concierge/llm"
	"github.com/skinbuddy/concierge/memory"
	"github.com/skinbuddy/concierge/profile"
)

// planExpiry is how long a calendar plan waits for a yes/no before it is
// discarded.
const planExpiry = 10 * time.Minute

// historyLimit caps per-session conversation history.
const historyLimit = 40

// Orchestrator routes each user turn to one agent and keeps per-user
// conversation state: profile, last answers for follow-ups, and any
// calendar plan awaiting confirmation.
type Orchestrator struct {
	llm      llm.Provider
	safety   *Safety
	intake   *Intake
	products *ProductLookup
	routines *RoutineBuilder
	evidence *EvidenceAgent
	calendar *CalendarAgent
	memory   memory.Manager

	mu       sync.Mutex // guards the sessions map
	sessions map[string]*session

	now func() time.Time
}

// session holds one user's conversation state. mu serializes turns:
// concurrent HTTP and WebSocket requests for the same user queue on it,
// so handlers may touch the fields freely while holding it.
type session struct {
	mu           sync.Mutex
	profile      *core.Profile
	lastProducts *ProductAnswer
	lastRoutine  *Routine
	lastEvidence *EvidenceSummary
	pending      *ReminderPlan
	history      []core.Message
}

// Deps bundles the orchestrator's collaborators. Memory may be nil.
type Deps struct {
	LLM      llm.Provider
	Safety   *Safety
	Intake   *Intake
	Products *ProductLookup
	Routines *RoutineBuilder
	Evidence *EvidenceAgent
	Calendar *CalendarAgent
	Memory   memory.Manager
}

// NewOrchestrator wires the agent team.
func NewOrchestrator(d Deps) *Orchestrator {
	return &Orchestrator{
		llm:      d.LLM,
		safety:   d.Safety,
		intake:   d.Intake,
		products: d.Products,
		routines: d.Routines,
		evidence: d.Evidence,
		calendar: d.Calendar,
		memory:   d.Memory,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

func (o *Orchestrator) session(userID string) *session {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[userID]
	if !ok {
		s = &session{}
		o.sessions[userID] = s
	}
	return s
}

// History returns a copy of the user's conversation history.
func (o *Orchestrator) History(userID string) []core.Message {
	s := o.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Handle processes one user turn. ask is used only when the turn needs
// interactive profile intake; it may be nil on channels that cannot ask.
func (o *Orchestrator) Handle(ctx context.Context, userID, query string, ask AskFunc) (*Reply, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Reply{Intent: IntentNone, Message: helpMessage}, nil
	}

	if msg, safe := o.safety.Check(query); !safe {
		return &Reply{Intent: IntentUnsafe, Message: msg}, nil
	}

	s := o.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	o.expirePending(s)

	reply, err := o.route(ctx, userID, s, query, ask)
	if err != nil {
		return nil, err
	}

	o.remember(ctx, userID, s, query, reply)
	return reply, nil
}

func (o *Orchestrator) route(ctx context.Context, userID string, s *session, query string, ask AskFunc) (*Reply, error) {
	switch {
	case isYes(query) || isNo(query):
		return o.handleConfirmation(ctx, s, query)

	case isCalendarQuery(query):
		return o.handleCalendar(ctx, s, query)

	case isProfileQuery(query):
		return o.handleProfile(ctx, userID, s, query, ask)

	case followupIntent(query) != IntentNone:
		return o.handleFollowup(ctx, s, query)

	case isEvidenceQuery(query):
		return o.handleEvidence(ctx, s, query)

	case isProductQuery(query):
		return o.handleProduct(ctx, userID, s, query)

	case isRoutineQuery(query):
		return o.handleRoutine(userID, s, query)

	default:
		return &Reply{Intent: IntentNone, Message: helpMessage}, nil
	}
}

func (o *Orchestrator) handleConfirmation(ctx context.Context, s *session, query string) (*Reply, error) {
	if s.pending == nil {
		return &Reply{Intent: IntentConfirmation, Message: "There's nothing waiting for a yes or no right now."}, nil
	}
	plan := s.pending
	s.pending = nil

	result, err := o.calendar.Execute(ctx, plan, isYes(query))
	if err != nil {
		return nil, err
	}
	return &Reply{
		Intent:   IntentConfirmation,
		Message:  calendarMessage(result),
		Calendar: result,
	}, nil
}

func (o *Orchestrator) handleCalendar(ctx context.Context, s *session, query string) (*Reply, error) {
	plan, err := o.calendar.Plan(ctx, query)
	if err != nil {
		return nil, err
	}

	if !plan.NeedsConfirmation {
		result, err := o.calendar.Execute(ctx, plan, true)
		if err != nil {
			return nil, err
		}
		return &Reply{Intent: IntentCalendar, Message: calendarMessage(result), Calendar: result}, nil
	}

	s.pending = plan
	return &Reply{Intent: IntentCalendarPlan, Message: planMessage(plan), Plan: plan}, nil
}

func (o *Orchestrator) handleProfile(ctx context.Context, userID string, s *session, query string, ask AskFunc) (*Reply, error) {
	q := strings.ToLower(query)

	wantsUpdate := containsAny(q, "update", "change", "edit")

	raw, err := o.intake.Get(userID)
	if err != nil {
		return nil, err
	}
	if ask == nil && (wantsUpdate || raw == nil) {
		return &Reply{
			Intent:  IntentProfile,
			Message: "Profile setup needs a back-and-forth chat. Open the chat page and ask again there.",
		}, nil
	}

	switch {
	case wantsUpdate:
		raw, err = o.intake.Update(ctx, userID, ask)
	case raw == nil:
		raw, err = o.intake.Create(ctx, userID, ask)
	}
	if err != nil {
		return nil, err
	}

	s.profile = profile.Normalize(raw)
	return &Reply{Intent: IntentProfile, Message: profileMessage(s.profile)}, nil
}

func (o *Orchestrator) handleFollowup(ctx context.Context, s *session, query string) (*Reply, error) {
	intent := followupIntent(query)

	var payload interface{}
	switch intent {
	case IntentFollowupRoutine:
		if s.lastRoutine != nil {
			payload = s.lastRoutine
		}
	case IntentFollowupEvidence:
		if s.lastEvidence != nil {
			payload = s.lastEvidence
		}
	default:
		if s.lastProducts != nil {
			payload = s.lastProducts
		}
	}
	if payload == nil {
		return &Reply{
			Intent:  intent,
			Message: "I don't have a previous answer to go back to. Ask me for products, a routine, or ingredient research first.",
		}, nil
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode followup context: %w", err)
	}

	answer, err := o.llm.Complete(ctx, llm.Request{
		System: "You answer a follow-up question about the assistant's previous answer. " +
			"Use only the JSON context given. Answer in 1-3 plain sentences.",
		Prompt:      fmt.Sprintf("Previous answer:\n%s\n\nFollow-up: %s", encoded, query),
		Temperature: 0.3,
		MaxTokens:   512,
	})
	if err != nil {
		log.Printf("[ORCHESTRATOR] followup answer failed: %v", err)
		answer = "I still have the previous answer above; could you point at a specific item in it?"
	}
	return &Reply{Intent: intent, Message: answer}, nil
}

func (o *Orchestrator) handleEvidence(ctx context.Context, s *session, query string) (*Reply, error) {
	summary, err := o.evidence.Run(ctx, query)
	if err != nil {
		return nil, err
	}
	if summary.Error == "" {
		s.lastEvidence = summary
	}
	return &Reply{Intent: IntentEvidence, Message: summary.Summary, Evidence: summary}, nil
}

func (o *Orchestrator) handleProduct(ctx context.Context, userID string, s *session, query string) (*Reply, error) {
	o.loadProfile(userID, s)

	var memoryContext string
	if o.memory != nil {
		var err error
		memoryContext, err = o.memory.Retrieve(ctx, userID, query)
		if err != nil {
			log.Printf("[ORCHESTRATOR] memory retrieve failed: %v", err)
		}
	}

	answer, err := o.products.Run(ctx, query, s.profile, memoryContext)
	if err != nil {
		return nil, err
	}
	s.lastProducts = answer
	return &Reply{Intent: IntentProduct, Message: productMessage(answer), Products: answer}, nil
}

func (o *Orchestrator) handleRoutine(userID string, s *session, query string) (*Reply, error) {
	o.loadProfile(userID, s)
	routine := o.routines.Run(query, s.profile)
	s.lastRoutine = routine
	return &Reply{Intent: IntentRoutine, Message: routine.Brief, Routine: routine}, nil
}

// loadProfile fills the session profile from the store, without ever
// starting interactive intake.
func (o *Orchestrator) loadProfile(userID string, s *session) {
	if s.profile != nil {
		return
	}
	raw, err := o.intake.Get(userID)
	if err != nil || raw == nil {
		return
	}
	s.profile = profile.Normalize(raw)
}

func (o *Orchestrator) expirePending(s *session) {
	if s.pending == nil {
		return
	}
	planned := time.Unix(s.pending.PlannedAt, 0)
	if o.now().Sub(planned) > planExpiry {
		s.pending = nil
	}
}

// remember appends the turn to session history and records it into
// vector memory. The caller holds the session lock.
func (o *Orchestrator) remember(ctx context.Context, userID string, s *session, query string, reply *Reply) {
	s.history = append(s.history,
		core.Message{Role: core.RoleUser, Content: query},
		core.Message{Role: core.RoleAssistant, Content: reply.Message},
	)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}

	if o.memory == nil {
		return
	}
	if err := o.memory.RecordExchange(ctx, userID, query, reply.Message); err != nil {
		log.Printf("[ORCHESTRATOR] memory record failed: %v", err)
	}
}

const helpMessage = "I can recommend products, build an AM/PM routine, explain the research " +
	"behind ingredients, set skincare reminders, and keep a profile of your skin. What would you like?"

func isYes(q string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.Trim(q, ".!"))) {
	case "yes", "y", "yeah", "yep", "sure", "ok", "okay", "confirm", "do it":
		return true
	}
	return false
}

func isNo(q string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.Trim(q, ".!"))) {
	case "no", "n", "nope", "cancel", "stop", "don't":
		return true
	}
	return false
}

func isCalendarQuery(q string) bool {
	return containsAny(strings.ToLower(q), "remind", "schedule", "alarm", "calendar")
}

func isProfileQuery(q string) bool {
	return strings.Contains(strings.ToLower(q), "profile")
}

// followupIntent keys each follow-up family on distinct phrases so
// "tell me more about that routine" never lands in the products context.
func followupIntent(q string) Intent {
	lower := strings.ToLower(q)
	switch {
	case containsAny(lower, "that routine", "this routine"):
		return IntentFollowupRoutine
	case containsAny(lower, "that evidence", "that research", "that study", "those studies"):
		return IntentFollowupEvidence
	case containsAny(lower, "those products", "these products", "them",
		"which one", "which of", "the first", "the second", "the last",
		"cheapest", "that one"):
		return IntentFollowupProducts
	}
	return IntentNone
}

func isEvidenceQuery(q string) bool {
	lower := strings.ToLower(q)
	if evidence.ExtractIngredient(lower) == "" {
		return false
	}
	return containsAny(lower, "evidence", "study", "studies", "research", "proven", "work", "works", "effective", "science")
}

func isProductQuery(q string) bool {
	return containsAny(strings.ToLower(q),
		"recommend", "suggest", "looking for", "need a", "need an", "buy", "product", "serum",
		"cleanser", "moisturizer", "sunscreen", "toner")
}

func isRoutineQuery(q string) bool {
	return containsAny(strings.ToLower(q), "routine", "regimen", "steps")
}

func productMessage(a *ProductAnswer) string {
	if len(a.Products) == 0 {
		return "Nothing in the catalog matched that. Try naming a product type or an ingredient."
	}
	var names []string
	for i, p := range a.Products {
		if i == 3 {
			break
		}
		names = append(names, p.ProductName)
	}
	msg := fmt.Sprintf("Found %d products. Top picks: %s.", len(a.Products), strings.Join(names, "; "))
	if a.Reason != "" {
		msg += " " + a.Reason
	}
	return msg
}

func profileMessage(p *core.Profile) string {
	if p == nil {
		return "I couldn't put a profile together."
	}
	return fmt.Sprintf("Got it, %s: %s skin, concerns: %s, budget: %s.",
		orDefault(p.Name, "friend"), orDefault(p.SkinType, "unspecified"),
		orDefault(p.ConcernsText(), "none listed"), orDefault(p.BudgetPreference, "unspecified"))
}

func planMessage(plan *ReminderPlan) string {
	switch plan.Intent {
	case "create":
		c := plan.Create
		msg := fmt.Sprintf("I'll set %q for %s", c.Title, c.DatetimeISO)
		if c.Recurrence != "" && c.Recurrence != "NONE" {
			msg += ", repeating " + strings.ToLower(c.Recurrence)
		}
		return msg + ". Shall I go ahead? (yes/no)"
	case "delete":
		return fmt.Sprintf("That would delete: %s. Confirm? (yes/no)",
			strings.Join(plan.Delete.Matches, "; "))
	default:
		return "Shall I go ahead? (yes/no)"
	}
}

func calendarMessage(r *CalendarResult) string {
	switch r.Status {
	case "created":
		return fmt.Sprintf("Done, reminder %q is set for %s.", r.Reminder.Title, r.Reminder.StartDatetime)
	case "deleted":
		return fmt.Sprintf("Deleted %d reminder(s): %s.", len(r.DeletedTitles), strings.Join(r.DeletedTitles, "; "))
	case "ok":
		if len(r.Reminders) == 0 {
			return "You have no reminders."
		}
		var titles []string
		for _, rem := range r.Reminders {
			titles = append(titles, fmt.Sprintf("%s (%s)", rem.Title, rem.StartDatetime))
		}
		return "Your reminders: " + strings.Join(titles, "; ") + "."
	case "cancelled":
		return r.Details
	case "no_matches":
		return "I couldn't find a reminder matching that."
	default:
		return r.Details
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
