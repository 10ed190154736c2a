package agents

import (
	"fmt"
	"strings"

	"github.com/skinbuddy/concierge/catalog"
	"github.com/skinbuddy/concierge/core"
)

// step is one slot of a routine skeleton before a product is chosen.
type step struct {
	time     string
	name     string
	category string
}

// RoutineBuilder assembles AM/PM routines from the catalog, picking one
// product per step with the deterministic profile scorer. Steps whose
// category has no catalog product are dropped.
type RoutineBuilder struct {
	catalog *catalog.Catalog
}

// NewRoutineBuilder builds a routine agent.
func NewRoutineBuilder(cat *catalog.Catalog) *RoutineBuilder {
	return &RoutineBuilder{catalog: cat}
}

// Run builds a routine for the question. The profile drives both product
// choice and which optional steps appear; a nil profile yields the core
// steps with category bestsellers.
func (a *RoutineBuilder) Run(question string, prof *core.Profile) *Routine {
	skeleton := a.skeleton(routineKind(question), prof)

	routine := &Routine{Question: question, Profile: prof}
	for _, st := range skeleton {
		p := a.catalog.PickBest(st.category, prof)
		if p == nil {
			continue
		}
		routine.Steps = append(routine.Steps, RoutineStep{
			Time:        st.time,
			Step:        st.name,
			ProductName: p.Name,
			ProductURL:  p.URL,
			Reason:      stepReason(st, prof),
		})
	}
	routine.Brief = brief(routine, prof)
	return routine
}

// routineKind classifies the question as AM, PM, SPOT or BOTH.
func routineKind(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "spot"):
		return "SPOT"
	case containsAny(q, "morning", "am routine", " am "):
		return "AM"
	case containsAny(q, "night", "evening", "pm routine", " pm "):
		return "PM"
	default:
		return "BOTH"
	}
}

func (a *RoutineBuilder) skeleton(kind string, prof *core.Profile) []step {
	wantsTonerEssence := prof != nil &&
		(containsAny(strings.ToLower(prof.SkinType), "dry", "normal") || prof.HasConcern("aging"))
	wantsSpot := prof != nil &&
		(prof.HasConcern("acne") || prof.HasConcern("pigment") || prof.HasConcern("dark spot"))

	var steps []step
	addAM := func() {
		steps = append(steps, step{"AM", "Cleanse", "cleanser"})
		if wantsTonerEssence {
			steps = append(steps,
				step{"AM", "Tone", "toner"},
				step{"AM", "Essence", "essence"},
			)
		}
		steps = append(steps,
			step{"AM", "Treat", "serum"},
			step{"AM", "Moisturize", "moisturizer"},
			step{"AM", "Protect", "sunscreen"},
		)
		if wantsSpot {
			steps = append(steps, step{"AM", "Spot treat", "spot treatment"})
		}
	}
	addPM := func() {
		steps = append(steps,
			step{"PM", "Cleanse", "cleanser"},
			step{"PM", "Tone", "toner"},
			step{"PM", "Essence", "essence"},
			step{"PM", "Treat", "serum"},
			step{"PM", "Moisturize", "moisturizer"},
			step{"PM", "Exfoliate (2-3x per week)", "exfoliant"},
		)
		if wantsSpot {
			steps = append(steps, step{"PM", "Spot treat", "spot treatment"})
		}
	}

	switch kind {
	case "SPOT":
		steps = append(steps, step{"SPOT", "Spot treat", "spot treatment"})
	case "AM":
		addAM()
	case "PM":
		addPM()
	default:
		addAM()
		addPM()
	}
	return steps
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func stepReason(st step, prof *core.Profile) string {
	if prof == nil {
		return fmt.Sprintf("best %s match in the catalog", st.category)
	}
	var parts []string
	if prof.SkinType != "" {
		parts = append(parts, prof.SkinType+" skin")
	}
	if len(prof.Concerns) > 0 {
		parts = append(parts, prof.ConcernsText())
	}
	if len(parts) == 0 {
		return fmt.Sprintf("best %s match in the catalog", st.category)
	}
	return fmt.Sprintf("best %s for %s", st.category, strings.Join(parts, ", "))
}

func brief(r *Routine, prof *core.Profile) string {
	if len(r.Steps) == 0 {
		return "No catalog products matched the routine steps."
	}

	byTime := map[string][]string{}
	var hasExfoliant bool
	for _, st := range r.Steps {
		byTime[st.Time] = append(byTime[st.Time], st.Step)
		if strings.Contains(st.Step, "Exfoliate") {
			hasExfoliant = true
		}
	}

	var parts []string
	if am := byTime["AM"]; len(am) > 0 {
		parts = append(parts, "Morning: "+strings.Join(am, " > "))
	}
	if pm := byTime["PM"]; len(pm) > 0 {
		parts = append(parts, "Evening: "+strings.Join(pm, " > "))
	}
	if spot := byTime["SPOT"]; len(spot) > 0 {
		parts = append(parts, "Spot treatment on affected areas only")
	}

	intro := "Here's your routine"
	if prof != nil && prof.SkinType != "" {
		intro += " for " + prof.SkinType + " skin"
	}
	text := intro + ". " + strings.Join(parts, ". ") + "."
	if hasExfoliant {
		text += " Keep exfoliation to 2-3 evenings a week."
	}
	return text
}
