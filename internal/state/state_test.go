package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, ok := store.Get("Some article"); ok {
		t.Error("Expected no state for unknown article")
	}

	want := ViewState{View: "activity", Sampling: "all"}
	if err := store.Set("Some article", want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := store.Get("Some article")
	if !ok {
		t.Fatal("Expected saved state")
	}
	if got != want {
		t.Errorf("Got %+v, want %+v", got, want)
	}

	// A fresh store should see the persisted file.
	store2, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore (reload) failed: %v", err)
	}
	got, ok = store2.Get("Some article")
	if !ok || got != want {
		t.Errorf("Reloaded store: got %+v (ok=%v), want %+v", got, ok, want)
	}
}

func TestStoreClear(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if err := store.Set("T", ViewState{View: "timeline"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Clear("T"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := store.Get("T"); ok {
		t.Error("Expected state to be cleared")
	}
}

func TestStoreCorruptFileStartsEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)

	dir := filepath.Join(tmpDir, "tochist")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, stateFileName), []byte("not json"), 0644); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if _, ok := store.Get("anything"); ok {
		t.Error("Corrupt state file should yield an empty store")
	}
}
