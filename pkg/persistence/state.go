package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// DaemonState contains the runtime state restored at attach.
type DaemonState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// PowerMode is the last power mode applied through the attribute
	// table, if any.
	PowerMode *uint64 `json:"power_mode,omitempty"`

	// FanMode is the last fan mode applied through the attribute
	// table, if any.
	FanMode *uint64 `json:"fan_mode,omitempty"`
}

// StateStore manages persistence of daemon state to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a new daemon state store.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Save persists the daemon state to disk.
func (s *StateStore) Save(state *DaemonState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the daemon state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *StateStore) Load() (*DaemonState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &DaemonState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
