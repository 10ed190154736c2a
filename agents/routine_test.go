package agents

import (
	"strings"
	"testing"

	"github.com/skinbuddy/concierge/catalog"
	"github.com/skinbuddy/concierge/core"
)

func routineTestCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Product{
		{Name: "Foam Cleanser", URL: "http://shop/1", Type: "cleanser", Ingredients: "glycerin", Price: "low"},
		{Name: "Hydrating Toner", URL: "http://shop/2", Type: "toner", Ingredients: "hyaluronic acid", Price: "low"},
		{Name: "Snail Essence", URL: "http://shop/3", Type: "essence", Ingredients: "snail mucin", Price: "medium"},
		{Name: "Niacinamide Serum", URL: "http://shop/4", Type: "serum", Ingredients: "niacinamide", Price: "low"},
		{Name: "Repair Cream", URL: "http://shop/5", Type: "moisturizer", Ingredients: "ceramide", Price: "medium"},
		{Name: "Daily SPF 50", URL: "http://shop/6", Type: "sunscreen", Ingredients: "zinc oxide", Price: "medium"},
	})
}

func amSteps(r *Routine) []string {
	var names []string
	for _, st := range r.Steps {
		if st.Time == "AM" {
			names = append(names, st.Step)
		}
	}
	return names
}

func TestRoutineAMAddsTonerAndEssenceForDrySkin(t *testing.T) {
	b := NewRoutineBuilder(routineTestCatalog())

	r := b.Run("build me a morning routine", &core.Profile{SkinType: "dry"})

	got := strings.Join(amSteps(r), " > ")
	want := "Cleanse > Tone > Essence > Treat > Moisturize > Protect"
	if got != want {
		t.Errorf("AM steps = %q, want %q", got, want)
	}
}

func TestRoutineAMSkipsTonerAndEssenceForOilySkin(t *testing.T) {
	b := NewRoutineBuilder(routineTestCatalog())

	r := b.Run("build me a morning routine", &core.Profile{SkinType: "oily"})

	got := strings.Join(amSteps(r), " > ")
	want := "Cleanse > Treat > Moisturize > Protect"
	if got != want {
		t.Errorf("AM steps = %q, want %q", got, want)
	}
}
