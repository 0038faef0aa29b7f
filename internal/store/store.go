// Package store defines the durable cache store contract.
//
// The durable store is the authoritative long-lived tier behind the file
// indexes: a write sink on the hot path and a rebuild source at startup,
// never a runtime read path. Implementations live in subpackages.
package store

import (
	"context"
	"errors"

	"github.com/sekaibot/sekai-server/internal/domain"
)

// ErrNotFound is returned when no entry exists for the requested id.
var ErrNotFound = errors.New("store: entry not found")

// EntryStore persists flattened cache entries keyed by catalog id.
type EntryStore interface {
	// GetEntry returns the entry for id, or ErrNotFound.
	GetEntry(ctx context.Context, id int64) (*domain.CacheEntry, error)

	// UpsertEntry inserts or replaces the entry for id. Last write wins;
	// concurrent upserts for different ids are safe.
	UpsertEntry(ctx context.Context, id int64, entry domain.CacheEntry) error

	// ExportAll returns a full snapshot of the store. Rows that fail to
	// decode are skipped, not fatal.
	ExportAll(ctx context.Context) (map[int64]domain.CacheEntry, error)

	// Close releases the underlying connection pool.
	Close() error
}
