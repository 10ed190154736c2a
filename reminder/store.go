// Package reminder persists skincare reminders and mirrors them to a
// calendar backend.
package reminder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reminder is one stored reminder. GoogleEventID links it to the mirrored
// calendar event, when one exists.
type Reminder struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	StartDatetime string `json:"datetime"`
	Recurrence    string `json:"recurrence"`
	GoogleEventID string `json:"google_event_id,omitempty"`
	SourceAgent   string `json:"source_agent,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type fileData struct {
	Reminders []Reminder `json:"reminders"`
}

// Store is a JSON-file reminder store.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the given JSON file.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create reminder dir: %w", err)
	}
	return &Store{path: path}, nil
}

// List returns all stored reminders.
func (s *Store) List() ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Reminders, nil
}

// Add persists a reminder, assigning an id and creation timestamp.
func (s *Store) Add(r Reminder) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return Reminder{}, err
	}
	if r.ID == "" {
		r.ID = "rem_" + uuid.New().String()[:8]
	}
	r.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	data.Reminders = append(data.Reminders, r)
	if err := s.save(data); err != nil {
		return Reminder{}, err
	}
	return r, nil
}

// FindByTitles returns reminders whose title exactly matches one of the
// given titles.
func (s *Store) FindByTitles(titles []string) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}
	set := titleSet(titles)
	var out []Reminder
	for _, r := range data.Reminders {
		if set[r.Title] {
			out = append(out, r)
		}
	}
	return out, nil
}

// DeleteByTitles removes reminders whose title matches, returning the
// deleted entries.
func (s *Store) DeleteByTitles(titles []string) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}
	set := titleSet(titles)
	var kept, deleted []Reminder
	for _, r := range data.Reminders {
		if set[r.Title] {
			deleted = append(deleted, r)
		} else {
			kept = append(kept, r)
		}
	}
	data.Reminders = kept
	if err := s.save(data); err != nil {
		return nil, err
	}
	return deleted, nil
}

// Titles returns the titles of all stored reminders, skipping blanks.
func (s *Store) Titles() ([]string, error) {
	reminders, err := s.List()
	if err != nil {
		return nil, err
	}
	var titles []string
	for _, r := range reminders {
		if r.Title != "" {
			titles = append(titles, r.Title)
		}
	}
	return titles, nil
}

func titleSet(titles []string) map[string]bool {
	set := make(map[string]bool, len(titles))
	for _, t := range titles {
		set[t] = true
	}
	return set
}

func (s *Store) load() (*fileData, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &fileData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reminders: %w", err)
	}
	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return &fileData{}, nil
	}
	return &data, nil
}

func (s *Store) save(data *fileData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reminders: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write reminders: %w", err)
	}
	return nil
}
