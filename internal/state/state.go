// Package state persists per-article view preferences between runs.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const stateFileName = "views.json"

// ViewState stores the last view selection for one article.
type ViewState struct {
	View     string `json:"view"`
	Sampling string `json:"sampling"`
}

// Store manages persistent view state, keyed by article title.
type Store struct {
	path string
	data map[string]ViewState
	mu   sync.RWMutex
}

// NewStore creates or loads state from XDG_STATE_HOME/tochist/
func NewStore() (*Store, error) {
	dir := getStateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	store := &Store{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]ViewState),
	}
	if err := store.load(); err != nil {
		// Non-fatal - start with empty state
		store.data = make(map[string]ViewState)
	}
	return store, nil
}

// getStateDir returns XDG_STATE_HOME/tochist or ~/.local/state/tochist
func getStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "tochist")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "tochist")
}

// Get returns the saved view state for an article, if any.
func (s *Store) Get(title string) (ViewState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs, ok := s.data[title]
	return vs, ok
}

// Set saves the view state for an article.
func (s *Store) Set(title string, vs ViewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[title] = vs
	return s.save()
}

// Clear removes the saved state for an article.
func (s *Store) Clear(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, title)
	return s.save()
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
