// Package service orchestrates the cache, carousel and catalog layers behind
// the HTTP API.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sekaibot/sekai-server/internal/cache"
	"github.com/sekaibot/sekai-server/internal/catalog/shikimori"
	"github.com/sekaibot/sekai-server/internal/domain"
	apperrors "github.com/sekaibot/sekai-server/internal/errors"
)

// Browser is the cache-bypassing browse surface of the upstream catalog.
// Browse results are exploratory and are never written to the cache tiers.
type Browser interface {
	BrowseByGenre(ctx context.Context, params shikimori.BrowseParams) ([]domain.RawAnime, error)
	TopByYear(ctx context.Context, year, minScore int) ([]domain.RawAnime, error)
}

// CatalogService answers anime lookups through the cache coordinator and
// filter browsing straight from the upstream catalog.
type CatalogService struct {
	cache   *cache.Coordinator
	browser Browser
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(coordinator *cache.Coordinator, browser Browser, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		cache:   coordinator,
		browser: browser,
		logger:  logger,
	}
}

// Search resolves a title through the cache tiers. An empty result from a
// successful upstream query is an empty-result error, distinct from
// upstream failure.
func (s *CatalogService) Search(ctx context.Context, title string, limit int) (*cache.SearchOutcome, error) {
	outcome, err := s.cache.SearchByName(ctx, title, limit)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	if len(outcome.Entries) == 0 {
		return nil, apperrors.EmptyResultf("no anime found for %q", title)
	}

	s.logger.Debug("search resolved",
		"title", title,
		"entries", len(outcome.Entries),
		"cached", outcome.Cached,
	)

	return outcome, nil
}

// GetAnime returns the flattened entry for a catalog id.
func (s *CatalogService) GetAnime(ctx context.Context, animeID string) (*domain.CacheEntry, error) {
	entry, err := s.cache.GetByID(ctx, animeID)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	return entry, nil
}

// BrowseGenre returns a randomized selection for a genre name and minimum
// score. The genre name is resolved against the known catalog vocabulary.
func (s *CatalogService) BrowseGenre(ctx context.Context, genreName string, minScore, limit int) ([]domain.RawAnime, error) {
	genreID, ok := shikimori.GenreID(genreName)
	if !ok {
		return nil, apperrors.NotFoundf("unknown genre %q", genreName).
			WithDetails(map[string]any{"known_genres": shikimori.GenreNames()})
	}
	canonical, _ := shikimori.GenreName(genreID)

	records, err := s.browser.BrowseByGenre(ctx, shikimori.BrowseParams{
		GenreID:  genreID,
		MinScore: minScore,
		Limit:    limit,
	})
	if err != nil {
		return nil, mapCatalogError(err)
	}
	if len(records) == 0 {
		return nil, apperrors.EmptyResultf("no anime found for genre %q with score %d+", canonical, minScore)
	}
	return records, nil
}

// TopByYear returns the highest scored records for a year.
func (s *CatalogService) TopByYear(ctx context.Context, year, minScore int) ([]domain.RawAnime, error) {
	if year < 1950 || year > time.Now().Year()+1 {
		return nil, apperrors.Validationf("year %d out of range", year)
	}

	records, err := s.browser.TopByYear(ctx, year, minScore)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	if len(records) == 0 {
		return nil, apperrors.EmptyResultf("no anime found for year %d with score %d+", year, minScore)
	}
	return records, nil
}

// mapCatalogError translates transport-level catalog failures into coded
// domain errors. Already-coded errors pass through unchanged.
func mapCatalogError(err error) error {
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return err
	}

	switch {
	case errors.Is(err, shikimori.ErrDecode):
		return apperrors.Decode("anime catalog returned an unreadable response").WithCause(err)
	case errors.Is(err, shikimori.ErrRateLimited),
		errors.Is(err, shikimori.ErrServer),
		errors.Is(err, shikimori.ErrUnavailable),
		errors.Is(err, shikimori.ErrBadStatus):
		return apperrors.Upstream("anime catalog unavailable").WithCause(err)
	default:
		return apperrors.Internal("catalog lookup failed").WithCause(err)
	}
}
