package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sekaibot/sekai-server/internal/domain"
	"github.com/sekaibot/sekai-server/internal/store"
)

// newTestStore creates a store backed by a temp database.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

// makeTestEntry creates a flattened cache entry with all fields populated.
func makeTestEntry(id string) domain.CacheEntry {
	return domain.CacheEntry{
		ID:          id,
		Name:        "Cowboy Bebop",
		Russian:     "Ковбой Бибоп",
		Score:       8.75,
		URL:         "/animes/1-cowboy-bebop",
		MainURL:     "https://example.test/posters/1/main.jpg",
		Rating:      "r",
		Episodes:    26,
		Kind:        "tv",
		Poster:      "https://example.test/posters/1/original.jpg",
		Genres:      []string{"Экшен", "Фантастика"},
		Studios:     []string{"Sunrise"},
		Description: "Space bounty hunters.",
	}
}

func TestUpsertAndGetEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := makeTestEntry("1")
	if err := s.UpsertEntry(ctx, 1, entry); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	got, err := s.GetEntry(ctx, 1)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}

	if got.ID != entry.ID {
		t.Errorf("ID: got %q, want %q", got.ID, entry.ID)
	}
	if got.Name != entry.Name {
		t.Errorf("Name: got %q, want %q", got.Name, entry.Name)
	}
	if got.Russian != entry.Russian {
		t.Errorf("Russian: got %q, want %q", got.Russian, entry.Russian)
	}
	if got.Score != entry.Score {
		t.Errorf("Score: got %v, want %v", got.Score, entry.Score)
	}
	if got.Episodes != entry.Episodes {
		t.Errorf("Episodes: got %d, want %d", got.Episodes, entry.Episodes)
	}
	if len(got.Genres) != 2 || got.Genres[0] != "Экшен" {
		t.Errorf("Genres: got %v, want %v", got.Genres, entry.Genres)
	}
	if got.Poster != entry.Poster {
		t.Errorf("Poster: got %q, want %q", got.Poster, entry.Poster)
	}
}

func TestGetEntryNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetEntry(context.Background(), 404)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetEntry miss: got %v, want store.ErrNotFound", err)
	}
}

func TestUpsertEntryIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := makeTestEntry("7")
	if err := s.UpsertEntry(ctx, 7, first); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	second := makeTestEntry("7")
	second.Score = 9.1
	second.Description = "updated"
	if err := s.UpsertEntry(ctx, 7, second); err != nil {
		t.Fatalf("UpsertEntry (replace): %v", err)
	}

	got, err := s.GetEntry(ctx, 7)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.Score != 9.1 {
		t.Errorf("Score after replace: got %v, want 9.1", got.Score)
	}
	if got.Description != "updated" {
		t.Errorf("Description after replace: got %q, want %q", got.Description, "updated")
	}

	all, err := s.ExportAll(ctx)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("entry count after double upsert: got %d, want 1", len(all))
	}
}

func TestExportAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		entry := makeTestEntry(string(rune('0' + i)))
		if err := s.UpsertEntry(ctx, i, entry); err != nil {
			t.Fatalf("UpsertEntry %d: %v", i, err)
		}
	}

	all, err := s.ExportAll(ctx)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ExportAll count: got %d, want 3", len(all))
	}
	if _, ok := all[2]; !ok {
		t.Error("ExportAll missing id 2")
	}
}

func TestExportAllSkipsUndecodableRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertEntry(ctx, 1, makeTestEntry("1")); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	// Corrupt a second row directly.
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO anime_cache (anime_id, data, updated_at) VALUES (2, 'not-json', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	all, err := s.ExportAll(ctx)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("ExportAll count with corrupt row: got %d, want 1", len(all))
	}
	if _, ok := all[1]; !ok {
		t.Error("ExportAll lost the valid row")
	}
}
