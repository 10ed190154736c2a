package core

import "strings"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Profile is the normalized user profile shared across agents.
// The intake flow stores raw question/answer pairs; Normalize in the
// profile package converts them into this structure.
type Profile struct {
	Name             string   `json:"name"`
	Age              string   `json:"age"`
	SkinType         string   `json:"skin_type"`
	Concerns         []string `json:"concerns"`
	CurrentRoutine   string   `json:"current_routine"`
	BudgetPreference string   `json:"budget_preference"`
}

// HasConcern reports whether any of the profile's concerns contains the
// given keyword (substring match, case-insensitive).
func (p *Profile) HasConcern(keyword string) bool {
	keyword = strings.ToLower(keyword)
	for _, c := range p.Concerns {
		if strings.Contains(strings.ToLower(c), keyword) {
			return true
		}
	}
	return false
}

// ConcernsText renders concerns for prose output, with a fallback when
// the profile has none.
func (p *Profile) ConcernsText() string {
	if len(p.Concerns) == 0 {
		return "overall skin health"
	}
	return strings.Join(p.Concerns, ", ")
}
