// Package agents implements the concierge's agent team: safety
// interception, profile intake, product lookup, routine building,
// evidence retrieval, calendar planning, and the orchestrator that routes
// between them while holding per-user conversation state.
package agents

import (
	"github.com/skinbuddy/concierge/core"
	"github.com/skinbuddy/concierge/evidence"
	"github.com/skinbuddy/concierge/reminder"
)

// Intent labels what a turn was routed to. It is part of the wire format:
// clients switch on it to render replies.
type Intent string

const (
	IntentNone             Intent = "none"
	IntentUnsafe           Intent = "unsafe"
	IntentConfirmation     Intent = "confirmation"
	IntentProfile          Intent = "profile"
	IntentEvidence         Intent = "evidence"
	IntentProduct          Intent = "product"
	IntentRoutine          Intent = "routine"
	IntentCalendar         Intent = "calendar"
	IntentCalendarPlan     Intent = "calendar_plan"
	IntentFollowupProducts Intent = "followup_products"
	IntentFollowupRoutine  Intent = "followup_routine"
	IntentFollowupEvidence Intent = "followup_evidence"
)

// Reply is the orchestrator's answer to one user turn. Exactly the fields
// relevant to the routed intent are populated.
type Reply struct {
	Intent   Intent           `json:"intent"`
	Message  string           `json:"message,omitempty"`
	Products *ProductAnswer   `json:"products,omitempty"`
	Routine  *Routine         `json:"routine,omitempty"`
	Evidence *EvidenceSummary `json:"evidence,omitempty"`
	Plan     *ReminderPlan    `json:"plan,omitempty"`
	Calendar *CalendarResult  `json:"result,omitempty"`
}

// ProductMatch is one recommended product.
type ProductMatch struct {
	ProductName string `json:"product_name"`
	ProductURL  string `json:"product_url"`
	Reason      string `json:"reason"`
}

// ProductAnswer is the product lookup agent's output.
type ProductAnswer struct {
	Question string         `json:"question"`
	Products []ProductMatch `json:"products"`
	Reason   string         `json:"reason"`
}

// RoutineStep is one step of a built routine, already filled with a
// product.
type RoutineStep struct {
	Time        string `json:"time"` // "AM", "PM" or "SPOT"
	Step        string `json:"step"`
	ProductName string `json:"product_name"`
	ProductURL  string `json:"product_url"`
	Reason      string `json:"reason"`
}

// Routine is the routine agent's output.
type Routine struct {
	Question string        `json:"question"`
	Profile  *core.Profile `json:"user_profile"`
	Brief    string        `json:"routine_brief"`
	Steps    []RoutineStep `json:"steps"`
}

// EvidenceSummary is the evidence agent's output.
type EvidenceSummary struct {
	Ingredient string           `json:"ingredient"`
	Question   string           `json:"question"`
	Summary    string           `json:"summary"`
	Strength   string           `json:"strength"` // strong | moderate | weak | none
	Sources    []evidence.Chunk `json:"sources"`
	Tags       []string         `json:"tags"`
	Error      string           `json:"error,omitempty"`
}

// ReminderPlan is a calendar action that has been planned but not yet
// executed. Plans never mutate state; Execute does.
type ReminderPlan struct {
	Question          string         `json:"question"`
	Intent            string         `json:"intent"` // create | delete | list | update
	NeedsConfirmation bool           `json:"needs_confirmation"`
	Create            *CreatePayload `json:"create,omitempty"`
	Delete            *DeletePayload `json:"delete,omitempty"`
	PlannedAt         int64          `json:"planned_at"`
}

// CreatePayload carries a planned reminder creation.
type CreatePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DatetimeISO string `json:"datetime_iso"`
	Recurrence  string `json:"recurrence"`
}

// DeletePayload carries the titles matched for a planned deletion.
type DeletePayload struct {
	Matches     []string `json:"matches"`
	Confidence  string   `json:"confidence"`
	Explanation string   `json:"explanation"`
}

// CalendarResult is the outcome of executing a ReminderPlan.
type CalendarResult struct {
	Question      string              `json:"question"`
	Intent        string              `json:"intent"`
	Status        string              `json:"status"` // created | deleted | ok | cancelled | no_matches | not_implemented
	Reminder      *reminder.Reminder  `json:"reminder,omitempty"`
	Reminders     []reminder.Reminder `json:"reminders,omitempty"`
	DeletedTitles []string            `json:"deleted_titles,omitempty"`
	Details       string              `json:"details,omitempty"`
}
