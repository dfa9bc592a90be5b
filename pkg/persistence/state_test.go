package persistence

import (
	"path/filepath"
	"testing"
	"time"
)

func TestStateStore(t *testing.T) {
	t.Run("NewStateStore", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStateStore(filepath.Join(dir, "state.json"))
		if store == nil {
			t.Fatal("NewStateStore() returned nil")
		}
	})

	t.Run("SaveAndLoadEmpty", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStateStore(filepath.Join(dir, "state.json"))

		state := &DaemonState{
			Version: 1,
			SavedAt: time.Now(),
		}

		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if got.Version != 1 {
			t.Errorf("Version = %d, want 1", got.Version)
		}
		if got.PowerMode != nil || got.FanMode != nil {
			t.Error("empty state should have no saved modes")
		}
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStateStore(filepath.Join(dir, "nonexistent.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		// Should return nil (empty state) for non-existent file
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("ModeRoundTrip", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStateStore(filepath.Join(dir, "state.json"))

		power := uint64(3)
		fan := uint64(1)
		state := &DaemonState{
			SavedAt:   time.Now(),
			PowerMode: &power,
			FanMode:   &fan,
		}

		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if got.Version != StateVersion {
			t.Errorf("Version = %d, want %d", got.Version, StateVersion)
		}
		if got.PowerMode == nil || *got.PowerMode != 3 {
			t.Errorf("PowerMode = %v, want 3", got.PowerMode)
		}
		if got.FanMode == nil || *got.FanMode != 1 {
			t.Errorf("FanMode = %v, want 1", got.FanMode)
		}
	})

	t.Run("PartialState", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStateStore(filepath.Join(dir, "state.json"))

		power := uint64(2)
		state := &DaemonState{PowerMode: &power}
		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.PowerMode == nil || *got.PowerMode != 2 {
			t.Errorf("PowerMode = %v, want 2", got.PowerMode)
		}
		if got.FanMode != nil {
			t.Errorf("FanMode = %v, want nil", got.FanMode)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "state.json")
		store := NewStateStore(path)

		fan := uint64(1)
		_ = store.Save(&DaemonState{FanMode: &fan})

		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() after Clear() error = %v", err)
		}

		if got != nil {
			t.Errorf("Load() after Clear() = %v, want nil", got)
		}

		// Clearing twice is fine
		if err := store.Clear(); err != nil {
			t.Fatalf("second Clear() error = %v", err)
		}
	})
}
