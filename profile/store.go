package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is a JSON-file profile store keyed by user id. Safe for
// concurrent use; the file is created on first save.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the given JSON file. The parent
// directory is created if missing.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	return &Store{path: path}, nil
}

// Get returns the stored raw profile for a user, or nil when absent.
func (s *Store) Get(userID string) (Raw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	return all[userID], nil
}

// Save stores (or replaces) a user's profile.
func (s *Store) Save(userID string, raw Raw) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	all[userID] = raw
	return s.save(all)
}

// Update merges the given answers into a user's existing profile.
func (s *Store) Update(userID string, updates Raw) (Raw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	existing := all[userID]
	if existing == nil {
		existing = Raw{}
	}
	for k, v := range updates {
		existing[k] = v
	}
	all[userID] = existing
	if err := s.save(all); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Store) load() (map[string]Raw, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]Raw{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var all map[string]Raw
	if err := json.Unmarshal(data, &all); err != nil || all == nil {
		// A corrupt file should not brick the concierge; start fresh.
		return map[string]Raw{}, nil
	}
	return all, nil
}

func (s *Store) save(all map[string]Raw) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return nil
}
