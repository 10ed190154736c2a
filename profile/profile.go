// Package profile persists user skincare profiles and normalizes the
// intake question/answer format into the core.Profile structure.
package profile

import (
	"regexp"
	"strings"

	"github.com/skinbuddy/concierge/core"
)

// Questions are the standard intake questions, in the order they are
// asked. Raw profiles are stored keyed by the question text.
var Questions = []string{
	"Name?",
	"Age?",
	"Skin type (e.g., oily, dry, combination)",
	"Skin concerns (e.g., acne, sensitivity)",
	"Current Skincare routine",
	"Budget preference",
}

// Raw is a stored profile: intake question -> answer.
type Raw map[string]string

var concernSplit = regexp.MustCompile(`[,&]| and `)

// Normalize converts a question-keyed raw profile into core.Profile.
// Concern lists may be comma, ampersand, or "and" separated.
func Normalize(raw Raw) *core.Profile {
	var concerns []string
	for _, part := range concernSplit.Split(strings.ToLower(raw[Questions[3]]), -1) {
		if part = strings.TrimSpace(part); part != "" {
			concerns = append(concerns, part)
		}
	}
	return &core.Profile{
		Name:             strings.TrimSpace(raw[Questions[0]]),
		Age:              strings.TrimSpace(raw[Questions[1]]),
		SkinType:         strings.ToLower(strings.TrimSpace(raw[Questions[2]])),
		Concerns:         concerns,
		CurrentRoutine:   strings.TrimSpace(raw[Questions[4]]),
		BudgetPreference: strings.ToLower(strings.TrimSpace(raw[Questions[5]])),
	}
}
