package cache

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sekaibot/sekai-server/internal/domain"
)

func newTestIndex(t *testing.T) *FileIndex[domain.CacheEntry] {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.json")
	idx, err := NewFileIndex[domain.CacheEntry](path, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewFileIndex: %v", err)
	}
	return idx
}

func TestFileIndexCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.json")
	idx, err := NewFileIndex[domain.CacheEntry](path, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewFileIndex: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("index file should exist: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("new index length: got %d, want 0", idx.Len())
	}
}

func TestFileIndexPutGet(t *testing.T) {
	idx := newTestIndex(t)

	entry := domain.CacheEntry{ID: "1", Name: "Cowboy Bebop", Score: 8.75}
	if err := idx.Put("1", entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := idx.Get("1")
	if !ok {
		t.Fatal("Get: entry not found after Put")
	}
	if got.Name != entry.Name || got.Score != entry.Score {
		t.Errorf("Get: got %+v, want %+v", got, entry)
	}

	if _, ok := idx.Get("2"); ok {
		t.Error("Get: found entry that was never stored")
	}
}

func TestFileIndexSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	logger := slog.New(slog.DiscardHandler)

	idx, err := NewFileIndex[domain.CacheEntry](path, logger)
	if err != nil {
		t.Fatalf("NewFileIndex: %v", err)
	}
	if err := idx.Put("42", domain.CacheEntry{ID: "42", Name: "Trigun"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reopened, err := NewFileIndex[domain.CacheEntry](path, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := reopened.Get("42")
	if !ok || got.Name != "Trigun" {
		t.Errorf("reopened Get: got %+v, ok=%v", got, ok)
	}
}

func TestFileIndexReloadsExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	logger := slog.New(slog.DiscardHandler)

	idx, err := NewFileIndex[domain.CacheEntry](path, logger)
	if err != nil {
		t.Fatalf("NewFileIndex: %v", err)
	}
	if _, ok := idx.Get("7"); ok {
		t.Fatal("empty index should not contain key")
	}

	// Rewrite the file behind the index's back and bump the mtime past
	// filesystem timestamp granularity.
	external := `{"7": {"id": "7", "name": "Berserk"}}`
	if err := os.WriteFile(path, []byte(external), 0o644); err != nil {
		t.Fatalf("external write: %v", err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	got, ok := idx.Get("7")
	if !ok {
		t.Fatal("Get should see externally written entry")
	}
	if got.Name != "Berserk" {
		t.Errorf("Name: got %q, want %q", got.Name, "Berserk")
	}
}

func TestFileIndexCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	idx, err := NewFileIndex[domain.CacheEntry](path, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewFileIndex: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("corrupt index length: got %d, want 0", idx.Len())
	}

	// The index must still accept writes after starting empty.
	if err := idx.Put("1", domain.CacheEntry{ID: "1"}); err != nil {
		t.Errorf("Put after corrupt load: %v", err)
	}
}

func TestFileIndexReplace(t *testing.T) {
	idx := newTestIndex(t)
	if err := idx.Put("old", domain.CacheEntry{ID: "old"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	err := idx.Replace(map[string]domain.CacheEntry{
		"1": {ID: "1"},
		"2": {ID: "2"},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if _, ok := idx.Get("old"); ok {
		t.Error("Replace should drop previous keys")
	}
	if idx.Len() != 2 {
		t.Errorf("length after Replace: got %d, want 2", idx.Len())
	}
}
