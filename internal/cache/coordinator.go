package cache

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/sekaibot/sekai-server/internal/catalog/shikimori"
	"github.com/sekaibot/sekai-server/internal/domain"
	apperrors "github.com/sekaibot/sekai-server/internal/errors"
	"github.com/sekaibot/sekai-server/internal/store"
)

// Catalog is the upstream lookup surface the coordinator needs.
type Catalog interface {
	SearchAnime(ctx context.Context, title string, limit int) ([]domain.RawAnime, error)
	AnimeByID(ctx context.Context, id string) (*domain.RawAnime, error)
}

// Coordinator ties the cache tiers together: by-name and by-id file indexes
// in front, the durable store behind, the upstream catalog as the source of
// truth on a miss. The by-name file maps a normalized term to an id-keyed
// bucket of flattened entries.
//
// By-name buckets never expire. A bucket written under an old flattening is
// still served as-is; staleness is preferred over re-fetch cost.
type Coordinator struct {
	byName  *FileIndex[map[string]domain.CacheEntry]
	byID    *FileIndex[domain.CacheEntry]
	store   store.EntryStore
	catalog Catalog
	logger  *slog.Logger

	posterPlaceholder string
}

// Options configures a Coordinator. Store may be nil, which degrades the
// cache to file-index-only operation: lookups and index writes still work,
// durable persistence is skipped with a warning.
type Options struct {
	ByName            *FileIndex[map[string]domain.CacheEntry]
	ByID              *FileIndex[domain.CacheEntry]
	Store             store.EntryStore
	Catalog           Catalog
	Logger            *slog.Logger
	PosterPlaceholder string
}

// NewCoordinator creates a cache coordinator.
func NewCoordinator(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Store == nil {
		logger.Warn("durable store unavailable, cache runs on file indexes only")
	}

	return &Coordinator{
		byName:            opts.ByName,
		byID:              opts.ByID,
		store:             opts.Store,
		catalog:           opts.Catalog,
		logger:            logger,
		posterPlaceholder: opts.PosterPlaceholder,
	}
}

// SearchOutcome is the result of a name lookup. Cached reports a by-name
// index hit; on a miss Raw additionally holds the records in the upstream
// schema so callers can keep the original shape.
type SearchOutcome struct {
	Entries []domain.CacheEntry
	Raw     []domain.RawAnime
	Cached  bool
}

// SearchByName resolves a title to flattened entries. A hit in the by-name
// index is returned verbatim with Cached set. On a miss the upstream catalog
// is queried, results are flattened and written to both indexes, and durable
// persistence runs detached so the caller never waits on it.
func (c *Coordinator) SearchByName(ctx context.Context, title string, limit int) (*SearchOutcome, error) {
	key := normalizeTitle(title)
	if key == "" {
		return nil, apperrors.Validation("empty search title")
	}

	if bucket, ok := c.byName.Get(key); ok {
		c.logger.Debug("by-name cache hit", "key", key, "entries", len(bucket))
		return &SearchOutcome{Entries: bucketEntries(bucket), Cached: true}, nil
	}

	raw, err := c.catalog.SearchAnime(ctx, title, limit)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &SearchOutcome{}, nil
	}

	entries := make([]domain.CacheEntry, 0, len(raw))
	bucket := make(map[string]domain.CacheEntry, len(raw))
	for i := range raw {
		entry := Flatten(&raw[i], c.posterPlaceholder)
		entries = append(entries, entry)
		bucket[entry.ID] = entry
	}

	if err := c.byID.PutAll(bucket); err != nil {
		c.logger.Warn("by-id index write failed", "key", key, "error", err)
	}
	if err := c.byName.Put(key, bucket); err != nil {
		c.logger.Warn("by-name index write failed", "key", key, "error", err)
	}

	c.persistDetached(entries)

	return &SearchOutcome{Entries: entries, Raw: raw}, nil
}

// GetByID returns the flattened entry for a catalog id from the by-id index.
// On an index miss the upstream catalog is consulted and the result is
// materialized into the cache tiers like a search miss.
func (c *Coordinator) GetByID(ctx context.Context, animeID string) (*domain.CacheEntry, error) {
	if entry, ok := c.byID.Get(animeID); ok {
		return &entry, nil
	}

	raw, err := c.catalog.AnimeByID(ctx, animeID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, apperrors.NotFoundf("anime %s", animeID)
	}

	entry := Flatten(raw, c.posterPlaceholder)
	if err := c.byID.Put(entry.ID, entry); err != nil {
		c.logger.Warn("by-id index write failed", "id", entry.ID, "error", err)
	}
	c.persistDetached([]domain.CacheEntry{entry})

	return &entry, nil
}

// RebuildByIDIndex replaces the by-id file index with the durable store's
// contents. Called at startup so a deleted or corrupted index file recovers
// automatically. A nil store makes this a no-op.
func (c *Coordinator) RebuildByIDIndex(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	snapshot, err := c.store.ExportAll(ctx)
	if err != nil {
		return apperrors.CacheUnavailable("export store").WithCause(err)
	}

	entries := make(map[string]domain.CacheEntry, len(snapshot))
	for id, entry := range snapshot {
		entries[strconv.FormatInt(id, 10)] = entry
	}
	if err := c.byID.Replace(entries); err != nil {
		return apperrors.CacheUnavailable("rebuild by-id index").WithCause(err)
	}

	c.logger.Info("by-id index rebuilt from store", "entries", len(entries))
	return nil
}

// Flatten collapses an upstream record into the cache schema. Missing
// posters are replaced with the placeholder URL so every entry renders.
func Flatten(raw *domain.RawAnime, posterPlaceholder string) domain.CacheEntry {
	view := raw.View()

	poster := view.Poster
	if poster == "" {
		poster = posterPlaceholder
	}

	var mainURL string
	if raw.Poster != nil {
		mainURL = raw.Poster.MainURL
	}
	if mainURL == "" {
		mainURL = poster
	}

	return domain.CacheEntry{
		ID:          raw.ID,
		Name:        raw.Name,
		Russian:     raw.Russian,
		Score:       raw.Score,
		URL:         raw.URL,
		MainURL:     mainURL,
		Rating:      raw.Rating,
		Episodes:    raw.Episodes,
		Kind:        raw.Kind,
		Poster:      poster,
		Genres:      view.Genres,
		Studios:     view.Studios,
		Description: shikimori.CleanDescription(raw.Description),
	}
}

// bucketEntries flattens an id-keyed bucket into a slice, best score first.
// The on-disk bucket is a JSON object so map iteration order must not leak
// into responses.
func bucketEntries(bucket map[string]domain.CacheEntry) []domain.CacheEntry {
	entries := make([]domain.CacheEntry, 0, len(bucket))
	for _, entry := range bucket {
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b domain.CacheEntry) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return strings.Compare(a.ID, b.ID)
		}
	})
	return entries
}

// normalizeTitle case-folds a search title so lookups are case-insensitive
// across scripts, matching how buckets are keyed at write time.
func normalizeTitle(title string) string {
	return cases.Fold().String(strings.TrimSpace(title))
}
