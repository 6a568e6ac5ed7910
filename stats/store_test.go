package stats

import (
	"path/filepath"
	"testing"
)

func TestStoreSaveAndLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stats.db")

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	s := Get()
	s.RecordRequest("/extract-text")
	s.RecordCacheHit()
	s.RecordEngineCall()

	wantTotal := s.TotalRequests.Load()
	wantHits := s.CacheHits.Load()
	wantCalls := s.EngineCalls.Load()

	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Wipe the live counters to prove Load restores them
	s.TotalRequests.Store(0)
	s.CacheHits.Store(0)
	s.EngineCalls.Store(0)

	reopened, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("Reopening store failed: %v", err)
	}
	defer reopened.Close()

	if err := reopened.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := s.TotalRequests.Load(); got != wantTotal {
		t.Errorf("Expected %d total requests restored, got %d", wantTotal, got)
	}
	if got := s.CacheHits.Load(); got != wantHits {
		t.Errorf("Expected %d cache hits restored, got %d", wantHits, got)
	}
	if got := s.EngineCalls.Load(); got != wantCalls {
		t.Errorf("Expected %d engine calls restored, got %d", wantCalls, got)
	}
}

func TestLoadFromEmptyStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stats.db")

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	// A fresh database has nothing persisted; Load must be a no-op
	if err := store.Load(); err != nil {
		t.Errorf("Expected Load on empty store to succeed, got %v", err)
	}
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "stats.db")

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("Expected nested directories to be created, got %v", err)
	}
	store.Close()
}
