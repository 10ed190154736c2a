package profile_test

import (
	"path/filepath"
	"testing"

	"github.com/skinbuddy/concierge/profile"
)

func sampleRaw() profile.Raw {
	return profile.Raw{
		profile.Questions[0]: "Mia",
		profile.Questions[1]: "29",
		profile.Questions[2]: "Combination",
		profile.Questions[3]: "Acne, dark spots and sensitivity",
		profile.Questions[4]: "cleanser and SPF",
		profile.Questions[5]: "Low",
	}
}

func TestNormalize(t *testing.T) {
	p := profile.Normalize(sampleRaw())

	if p.Name != "Mia" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.SkinType != "combination" {
		t.Errorf("SkinType = %q", p.SkinType)
	}
	if p.BudgetPreference != "low" {
		t.Errorf("BudgetPreference = %q", p.BudgetPreference)
	}
	want := []string{"acne", "dark spots", "sensitivity"}
	if len(p.Concerns) != len(want) {
		t.Fatalf("Concerns = %v, want %v", p.Concerns, want)
	}
	for i, c := range want {
		if p.Concerns[i] != c {
			t.Errorf("Concerns[%d] = %q, want %q", i, p.Concerns[i], c)
		}
	}
}

func TestNormalizeEmpty(t *testing.T) {
	p := profile.Normalize(profile.Raw{})
	if len(p.Concerns) != 0 {
		t.Errorf("Expected no concerns, got %v", p.Concerns)
	}
	if p.ConcernsText() != "overall skin health" {
		t.Errorf("ConcernsText = %q", p.ConcernsText())
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	store, err := profile.NewStore(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if raw, err := store.Get("u1"); err != nil || raw != nil {
		t.Fatalf("Expected no profile yet, got %v, %v", raw, err)
	}

	if err := store.Save("u1", sampleRaw()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := store.Get("u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if raw[profile.Questions[0]] != "Mia" {
		t.Errorf("Stored name = %q", raw[profile.Questions[0]])
	}

	// A second store on the same file sees the saved data.
	store2, err := profile.NewStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	raw2, err := store2.Get("u1")
	if err != nil || raw2 == nil {
		t.Fatalf("Reopened store lost the profile: %v, %v", raw2, err)
	}
}

func TestStoreUpdateMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	store, err := profile.NewStore(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Save("u1", sampleRaw()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	updates := profile.Raw{profile.Questions[5]: "High"}
	raw, err := store.Update("u1", updates)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if raw[profile.Questions[5]] != "High" {
		t.Errorf("Budget not updated: %q", raw[profile.Questions[5]])
	}
	if raw[profile.Questions[0]] != "Mia" {
		t.Errorf("Update clobbered name: %q", raw[profile.Questions[0]])
	}
}
