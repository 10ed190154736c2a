package agents

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/skinbuddy/concierge/llm"
	"github.com/skinbuddy/concierge/reminder"
)

const calendarIntentPrompt = `You classify a skincare reminder request.

Respond with ONLY a JSON object of this shape:
{
  "intent": "create" | "delete" | "list" | "update",
  "title_hint": "short title for the reminder, empty if not a create",
  "datetime_text": "the date/time phrase from the request, verbatim, or empty",
  "recurrence": "NONE" | "DAILY" | "WEEKLY" | "MONTHLY",
  "all_reminders": true or false
}

all_reminders is true only when the user wants every reminder deleted.`

const calendarMatchPrompt = `You match a deletion request against a list of reminder titles.

Respond with ONLY a JSON object of this shape:
{
  "matches": ["exact title from the list", ...],
  "confidence": "high" | "medium" | "low",
  "explanation": "one short sentence"
}

Only return titles that appear in the list verbatim. Return an empty
matches array when nothing fits.`

// defaultLeadTime is used when a create request gives no time at all.
const defaultLeadTime = 10 * time.Minute

// CalendarAgent plans and executes reminder operations. Planning never
// mutates anything; creates and deletes only happen in Execute, after the
// user confirms.
type CalendarAgent struct {
	llm      llm.Provider
	store    *reminder.Store
	calendar reminder.Calendar
	now      func() time.Time
}

// NewCalendarAgent builds a calendar agent. The calendar may be a
// reminder.NoopCalendar when Google credentials are absent.
func NewCalendarAgent(provider llm.Provider, store *reminder.Store, cal reminder.Calendar) *CalendarAgent {
	return &CalendarAgent{llm: provider, store: store, calendar: cal, now: time.Now}
}

type calendarIntentJSON struct {
	Intent       string `json:"intent"`
	TitleHint    string `json:"title_hint"`
	DatetimeText string `json:"datetime_text"`
	Recurrence   string `json:"recurrence"`
	AllReminders bool   `json:"all_reminders"`
}

type calendarMatchJSON struct {
	Matches     []string `json:"matches"`
	Confidence  string   `json:"confidence"`
	Explanation string   `json:"explanation"`
}

// Plan turns a reminder request into a ReminderPlan. List plans need no
// confirmation; create and delete plans do.
func (a *CalendarAgent) Plan(ctx context.Context, question string) (*ReminderPlan, error) {
	info := a.classify(ctx, question)

	plan := &ReminderPlan{
		Question:  question,
		Intent:    info.Intent,
		PlannedAt: a.now().Unix(),
	}

	switch info.Intent {
	case "list":
		return plan, nil

	case "create":
		when, err := a.resolveDatetime(info.DatetimeText)
		if err != nil {
			return nil, fmt.Errorf("resolve datetime %q: %w", info.DatetimeText, err)
		}
		title := info.TitleHint
		if title == "" {
			title = "Skincare reminder"
		}
		plan.NeedsConfirmation = true
		plan.Create = &CreatePayload{
			Title:       title,
			Description: question,
			DatetimeISO: when.Format(time.RFC3339),
			Recurrence:  normalizeRecurrence(info.Recurrence),
		}
		return plan, nil

	case "delete":
		titles, err := a.store.Titles()
		if err != nil {
			return nil, fmt.Errorf("list reminder titles: %w", err)
		}
		match := a.matchTitles(ctx, question, titles, info.AllReminders)
		plan.NeedsConfirmation = len(match.Matches) > 0
		plan.Delete = &DeletePayload{
			Matches:     match.Matches,
			Confidence:  match.Confidence,
			Explanation: match.Explanation,
		}
		return plan, nil

	default:
		plan.Intent = "update"
		return plan, nil
	}
}

// Execute carries out a confirmed plan. confirmed=false cancels any plan
// that needed confirmation.
func (a *CalendarAgent) Execute(ctx context.Context, plan *ReminderPlan, confirmed bool) (*CalendarResult, error) {
	result := &CalendarResult{Question: plan.Question, Intent: plan.Intent}

	if plan.NeedsConfirmation && !confirmed {
		result.Status = "cancelled"
		result.Details = "Okay, I won't touch your reminders."
		return result, nil
	}

	switch plan.Intent {
	case "list":
		reminders, err := a.store.List()
		if err != nil {
			return nil, fmt.Errorf("list reminders: %w", err)
		}
		result.Status = "ok"
		result.Reminders = reminders
		return result, nil

	case "create":
		if plan.Create == nil {
			return nil, fmt.Errorf("create plan has no payload")
		}
		start, err := time.Parse(time.RFC3339, plan.Create.DatetimeISO)
		if err != nil {
			return nil, fmt.Errorf("parse planned datetime: %w", err)
		}
		eventID, err := a.calendar.CreateEvent(ctx, plan.Create.Title, plan.Create.Description, start, plan.Create.Recurrence)
		if err != nil {
			// Keep the local reminder even when the calendar write fails.
			log.Printf("[CALENDAR] create event failed: %v", err)
		}
		rem, err := a.store.Add(reminder.Reminder{
			Title:         plan.Create.Title,
			Description:   plan.Create.Description,
			StartDatetime: plan.Create.DatetimeISO,
			Recurrence:    plan.Create.Recurrence,
			GoogleEventID: eventID,
			SourceAgent:   "calendar",
		})
		if err != nil {
			return nil, fmt.Errorf("save reminder: %w", err)
		}
		result.Status = "created"
		result.Reminder = &rem
		return result, nil

	case "delete":
		if plan.Delete == nil || len(plan.Delete.Matches) == 0 {
			result.Status = "no_matches"
			if plan.Delete != nil {
				result.Details = plan.Delete.Explanation
			}
			return result, nil
		}
		deleted, err := a.store.DeleteByTitles(plan.Delete.Matches)
		if err != nil {
			return nil, fmt.Errorf("delete reminders: %w", err)
		}
		for _, rem := range deleted {
			if rem.GoogleEventID != "" {
				if err := a.calendar.DeleteEvent(ctx, rem.GoogleEventID); err != nil {
					log.Printf("[CALENDAR] delete event %s failed: %v", rem.GoogleEventID, err)
				}
			}
			result.DeletedTitles = append(result.DeletedTitles, rem.Title)
		}
		result.Status = "deleted"
		return result, nil

	default:
		result.Status = "not_implemented"
		result.Details = "Editing reminders isn't supported yet. Delete and re-create instead."
		return result, nil
	}
}

func (a *CalendarAgent) classify(ctx context.Context, question string) calendarIntentJSON {
	raw, err := a.llm.Complete(ctx, llm.Request{
		System:      calendarIntentPrompt,
		Prompt:      question,
		Temperature: 0,
		MaxTokens:   256,
		JSONOnly:    true,
	})
	if err == nil {
		var info calendarIntentJSON
		if derr := llm.DecodeJSON(raw, &info); derr == nil && info.Intent != "" {
			return info
		}
	} else {
		log.Printf("[CALENDAR] intent classification failed, using keywords: %v", err)
	}
	return keywordIntent(question)
}

// keywordIntent is the model-free fallback classifier.
func keywordIntent(question string) calendarIntentJSON {
	q := strings.ToLower(question)
	info := calendarIntentJSON{Intent: "create", Recurrence: "NONE"}
	switch {
	case containsAny(q, "delete", "remove", "cancel"):
		info.Intent = "delete"
		info.AllReminders = containsAny(q, "all ", "everything", "every reminder")
	case containsAny(q, "list", "what reminders", "show me my reminders", "my reminders"):
		info.Intent = "list"
	case containsAny(q, "change", "move", "reschedule", "update"):
		info.Intent = "update"
	default:
		info.TitleHint = "Skincare reminder"
		info.DatetimeText = question
		switch {
		case strings.Contains(q, "every day"), strings.Contains(q, "daily"):
			info.Recurrence = "DAILY"
		case strings.Contains(q, "every week"), strings.Contains(q, "weekly"):
			info.Recurrence = "WEEKLY"
		case strings.Contains(q, "every month"), strings.Contains(q, "monthly"):
			info.Recurrence = "MONTHLY"
		}
	}
	return info
}

func (a *CalendarAgent) matchTitles(ctx context.Context, question string, titles []string, all bool) calendarMatchJSON {
	if len(titles) == 0 {
		return calendarMatchJSON{Confidence: "high", Explanation: "There are no reminders to delete."}
	}
	if all {
		return calendarMatchJSON{
			Matches:     titles,
			Confidence:  "high",
			Explanation: "Deleting every reminder as requested.",
		}
	}

	prompt := fmt.Sprintf("Request: %s\n\nReminder titles:\n- %s", question, strings.Join(titles, "\n- "))
	raw, err := a.llm.Complete(ctx, llm.Request{
		System:      calendarMatchPrompt,
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   256,
		JSONOnly:    true,
	})
	if err == nil {
		var match calendarMatchJSON
		if derr := llm.DecodeJSON(raw, &match); derr == nil {
			// Only titles that really exist survive.
			match.Matches = intersectTitles(match.Matches, titles)
			return match
		}
	} else {
		log.Printf("[CALENDAR] title matching failed, using substrings: %v", err)
	}

	// Substring fallback.
	q := strings.ToLower(question)
	var matches []string
	for _, t := range titles {
		if strings.Contains(q, strings.ToLower(t)) {
			matches = append(matches, t)
		}
	}
	return calendarMatchJSON{
		Matches:     matches,
		Confidence:  "low",
		Explanation: "Matched by title substring.",
	}
}

func intersectTitles(candidates, titles []string) []string {
	known := map[string]bool{}
	for _, t := range titles {
		known[t] = true
	}
	var out []string
	for _, c := range candidates {
		if known[c] {
			out = append(out, c)
		}
	}
	return out
}

var (
	timeOfDayRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clock24Re   = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
)

// resolveDatetime turns a free-form time phrase into a concrete time.
// Empty text means "soon": now plus a short lead. A bare time of day
// means today, or tomorrow when that time already passed.
func (a *CalendarAgent) resolveDatetime(text string) (time.Time, error) {
	now := a.now()
	text = strings.TrimSpace(text)
	if text == "" {
		return now.Add(defaultLeadTime), nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, text, now.Location()); err == nil {
			return t, nil
		}
	}

	lower := strings.ToLower(text)
	tomorrow := strings.Contains(lower, "tomorrow")

	hour, minute, found := 0, 0, false
	switch {
	case strings.Contains(lower, "noon"):
		hour, found = 12, true
	case strings.Contains(lower, "midnight"):
		hour, found = 0, true
	default:
		if m := timeOfDayRe.FindStringSubmatch(text); m != nil {
			fmt.Sscanf(m[1], "%d", &hour)
			if m[2] != "" {
				fmt.Sscanf(m[2], "%d", &minute)
			}
			meridiem := strings.ToLower(m[3])
			if meridiem == "pm" && hour < 12 {
				hour += 12
			}
			if meridiem == "am" && hour == 12 {
				hour = 0
			}
			found = true
		} else if m := clock24Re.FindStringSubmatch(text); m != nil {
			fmt.Sscanf(m[1], "%d", &hour)
			fmt.Sscanf(m[2], "%d", &minute)
			if hour < 24 && minute < 60 {
				found = true
			}
		}
	}

	if !found {
		if tomorrow {
			t := now.Add(24 * time.Hour)
			return time.Date(t.Year(), t.Month(), t.Day(), 9, 0, 0, 0, now.Location()), nil
		}
		return now.Add(defaultLeadTime), nil
	}

	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if tomorrow || !t.After(now) {
		t = t.Add(24 * time.Hour)
	}
	return t, nil
}

func normalizeRecurrence(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DAILY":
		return "DAILY"
	case "WEEKLY":
		return "WEEKLY"
	case "MONTHLY":
		return "MONTHLY"
	default:
		return "NONE"
	}
}
