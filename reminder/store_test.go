package reminder_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/skinbuddy/concierge/reminder"
)

func newTestStore(t *testing.T) *reminder.Store {
	t.Helper()
	store, err := reminder.NewStore(filepath.Join(t.TempDir(), "reminders.json"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestAddAssignsIDAndTimestamp(t *testing.T) {
	store := newTestStore(t)

	r, err := store.Add(reminder.Reminder{Title: "Apply sunscreen", StartDatetime: "2026-08-25T09:00:00Z"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !strings.HasPrefix(r.ID, "rem_") || len(r.ID) != len("rem_")+8 {
		t.Errorf("Unexpected id format: %q", r.ID)
	}
	if r.CreatedAt == "" {
		t.Error("CreatedAt not set")
	}
}

func TestListAndTitles(t *testing.T) {
	store := newTestStore(t)
	for _, title := range []string{"Apply sunscreen", "Evening retinol"} {
		if _, err := store.Add(reminder.Reminder{Title: title}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	all, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 reminders, got %d", len(all))
	}

	titles, err := store.Titles()
	if err != nil {
		t.Fatalf("Titles failed: %v", err)
	}
	if len(titles) != 2 || titles[0] != "Apply sunscreen" {
		t.Errorf("Unexpected titles: %v", titles)
	}
}

func TestDeleteByTitles(t *testing.T) {
	store := newTestStore(t)
	for _, title := range []string{"Apply sunscreen", "Evening retinol", "Weekly mask"} {
		if _, err := store.Add(reminder.Reminder{Title: title}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	deleted, err := store.DeleteByTitles([]string{"Evening retinol", "Weekly mask"})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("Expected 2 deleted, got %d", len(deleted))
	}

	remaining, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Title != "Apply sunscreen" {
		t.Errorf("Unexpected remaining reminders: %+v", remaining)
	}
}

func TestDeleteByTitlesNoMatch(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Add(reminder.Reminder{Title: "Apply sunscreen"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	deleted, err := store.DeleteByTitles([]string{"Does not exist"})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(deleted) != 0 {
		t.Errorf("Expected no deletions, got %v", deleted)
	}
}

func TestFindByTitles(t *testing.T) {
	store := newTestStore(t)
	added, err := store.Add(reminder.Reminder{Title: "Apply sunscreen", GoogleEventID: "evt_1"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	found, err := store.FindByTitles([]string{"Apply sunscreen"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != added.ID || found[0].GoogleEventID != "evt_1" {
		t.Errorf("Unexpected find result: %+v", found)
	}
}
