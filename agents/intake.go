package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/skinbuddy/concierge/core"
	"github.com/skinbuddy/concierge/profile"
)

// AskFunc poses one intake question to the user and returns their answer.
// The CLI backs it with stdin; the WebSocket server backs it with a
// question frame and the next inbound message.
type AskFunc func(ctx context.Context, question string) (string, error)

// Intake creates, fetches and updates user profiles through a short
// question-and-answer flow.
type Intake struct {
	store *profile.Store
}

// NewIntake builds an intake agent over the given profile store.
func NewIntake(store *profile.Store) *Intake {
	return &Intake{store: store}
}

// Get returns the stored raw profile for a user, or nil when none exists.
func (a *Intake) Get(userID string) (profile.Raw, error) {
	return a.store.Get(userID)
}

// Create runs the full intake questionnaire and saves the answers.
func (a *Intake) Create(ctx context.Context, userID string, ask AskFunc) (profile.Raw, error) {
	if ask == nil {
		return nil, fmt.Errorf("intake: interactive questions are not available on this channel")
	}
	raw := profile.Raw{}
	for _, q := range profile.Questions {
		answer, err := ask(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("intake question %q: %w", q, err)
		}
		raw[q] = strings.TrimSpace(answer)
	}
	if err := a.store.Save(userID, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Update re-asks every intake question and merges the answers into the
// stored profile. Blank answers keep the stored value.
func (a *Intake) Update(ctx context.Context, userID string, ask AskFunc) (profile.Raw, error) {
	if ask == nil {
		return nil, fmt.Errorf("intake: interactive questions are not available on this channel")
	}
	updates := profile.Raw{}
	for _, q := range profile.Questions {
		answer, err := ask(ctx, q+" (leave blank to keep)")
		if err != nil {
			return nil, fmt.Errorf("intake question %q: %w", q, err)
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			updates[q] = answer
		}
	}
	return a.store.Update(userID, updates)
}

// Ensure returns the user's normalized profile, running intake first when
// no profile exists yet.
func (a *Intake) Ensure(ctx context.Context, userID string, ask AskFunc) (*core.Profile, error) {
	raw, err := a.store.Get(userID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		raw, err = a.Create(ctx, userID, ask)
		if err != nil {
			return nil, err
		}
	}
	return profile.Normalize(raw), nil
}
