package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/sekaibot/sekai-server/internal/carousel"
	"github.com/sekaibot/sekai-server/internal/catalog/shikimori"
	"github.com/sekaibot/sekai-server/internal/domain"
)

// frameDescriptionMax bounds the description length in a rendered frame so
// the whole frame fits into a chat message caption.
const frameDescriptionMax = 300

// CarouselService creates and drives paging sessions over catalog results.
type CarouselService struct {
	sessions *carousel.Manager
	catalog  *CatalogService
	logger   *slog.Logger
}

// NewCarouselService creates a new carousel service.
func NewCarouselService(sessions *carousel.Manager, catalog *CatalogService, logger *slog.Logger) *CarouselService {
	return &CarouselService{
		sessions: sessions,
		catalog:  catalog,
		logger:   logger,
	}
}

// CarouselFrame is a rendered carousel position: the session cursor plus the
// record under it, projected onto the provenance-independent view.
type CarouselFrame struct {
	SessionID string            `json:"session_id"`
	Title     string            `json:"title"`
	Index     int               `json:"index"`
	Total     int               `json:"total"`
	Cached    bool              `json:"cached"`
	Record    domain.RecordView `json:"record"`
}

func frame(session *domain.Carousel) *CarouselFrame {
	record := session.Current()
	record.Description = shikimori.Snippet(record.Description, frameDescriptionMax)
	return &CarouselFrame{
		SessionID: session.ID,
		Title:     session.Title,
		Index:     session.CurrentIndex,
		Total:     session.Total,
		Cached:    session.Provenance == domain.ProvenanceCached,
		Record:    record,
	}
}

// CreateFromSearch opens a carousel over a title search. Cache hits carry
// the flattened schema for the session's lifetime; fresh results carry the
// upstream schema.
func (s *CarouselService) CreateFromSearch(ctx context.Context, ownerID int64, title string, limit int) (*CarouselFrame, error) {
	outcome, err := s.catalog.Search(ctx, title, limit)
	if err != nil {
		return nil, err
	}

	// Cache hits page the flattened schema; fresh results keep the
	// upstream schema for the session's lifetime.
	var session *domain.Carousel
	if outcome.Cached {
		session, err = s.sessions.CreateFromCache(ownerID, title, outcome.Entries)
	} else {
		session, err = s.sessions.CreateFromRaw(ownerID, title, outcome.Raw)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("search carousel created",
		"session", session.ID,
		"owner", ownerID,
		"title", title,
		"records", session.Total,
		"from_cache", outcome.Cached,
	)
	return frame(session), nil
}

// CreateFromGenre opens a carousel over a genre browse. Browse results skip
// the cache, so the session always carries the upstream schema.
func (s *CarouselService) CreateFromGenre(ctx context.Context, ownerID int64, genreName string, minScore, limit int) (*CarouselFrame, error) {
	records, err := s.catalog.BrowseGenre(ctx, genreName, minScore, limit)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.CreateFromRaw(ownerID, genreName, records)
	if err != nil {
		return nil, err
	}

	s.logger.Info("genre carousel created",
		"session", session.ID,
		"owner", ownerID,
		"genre", genreName,
		"records", session.Total,
	)
	return frame(session), nil
}

// CreateFromYear opens a carousel over the top records of a year.
func (s *CarouselService) CreateFromYear(ctx context.Context, ownerID int64, year, minScore int) (*CarouselFrame, error) {
	records, err := s.catalog.TopByYear(ctx, year, minScore)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.CreateFromRaw(ownerID, "top-"+strconv.Itoa(year), records)
	if err != nil {
		return nil, err
	}

	s.logger.Info("year carousel created",
		"session", session.ID,
		"owner", ownerID,
		"year", year,
		"records", session.Total,
	)
	return frame(session), nil
}

// Step moves the session cursor and returns the new frame.
func (s *CarouselService) Step(sessionID string, ownerID int64, dir domain.StepDirection) (*CarouselFrame, error) {
	session, err := s.sessions.Step(sessionID, ownerID, dir)
	if err != nil {
		return nil, err
	}
	return frame(session), nil
}

// Get returns the current frame without moving the cursor.
func (s *CarouselService) Get(sessionID string) (*CarouselFrame, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return frame(session), nil
}

// Delete closes the session.
func (s *CarouselService) Delete(sessionID string, ownerID int64) error {
	return s.sessions.Delete(sessionID, ownerID)
}
