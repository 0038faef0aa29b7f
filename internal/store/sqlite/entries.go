package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"github.com/sekaibot/sekai-server/internal/domain"
	"github.com/sekaibot/sekai-server/internal/store"
)

// GetEntry retrieves the cache entry for an anime id.
// Returns store.ErrNotFound on a miss.
func (s *Store) GetEntry(ctx context.Context, id int64) (*domain.CacheEntry, error) {
	var data string

	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM anime_cache WHERE anime_id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query entry %d: %w", id, err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("decode entry %d: %w", id, err)
	}

	return &entry, nil
}

// UpsertEntry inserts or replaces the entry for an anime id.
// Calling it twice with the same id leaves exactly one row with the latest value.
func (s *Store) UpsertEntry(ctx context.Context, id int64, entry domain.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry %d: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO anime_cache (anime_id, data, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (anime_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		id, string(data), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert entry %d: %w", id, err)
	}
	return nil
}

// ExportAll returns a full snapshot of the cache, used to rebuild the by-id
// file index at process start. Rows that fail to decode are logged and
// skipped rather than failing the export.
func (s *Store) ExportAll(ctx context.Context) (map[int64]domain.CacheEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT anime_id, data FROM anime_cache`)
	if err != nil {
		return nil, fmt.Errorf("query all entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[int64]domain.CacheEntry)
	for rows.Next() {
		var (
			id   int64
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}

		var entry domain.CacheEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			s.logger.Warn("skipping undecodable cache row",
				"anime_id", id,
				"error", err,
			)
			continue
		}
		entries[id] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}
