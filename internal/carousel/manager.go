// Package carousel manages in-memory paging sessions over search and browse
// results. Sessions are ephemeral: they live for the process lifetime only
// and are never persisted.
package carousel

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/sekaibot/sekai-server/internal/domain"
	apperrors "github.com/sekaibot/sekai-server/internal/errors"
)

// Manager holds active carousel sessions keyed by session id. All methods
// are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Carousel
	logger   *slog.Logger
}

// NewManager creates an empty session manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		sessions: make(map[string]*domain.Carousel),
		logger:   logger,
	}
}

// CreateFromRaw opens a session over fresh upstream records. The record
// list is fixed for the session's lifetime; only the cursor moves.
func (m *Manager) CreateFromRaw(ownerID int64, title string, records []domain.RawAnime) (*domain.Carousel, error) {
	if len(records) == 0 {
		return nil, apperrors.Validation("cannot create carousel with no records")
	}

	session := &domain.Carousel{
		ID:         uuid.NewString(),
		Title:      title,
		Provenance: domain.ProvenanceRaw,
		Raw:        records,
		Total:      len(records),
		OwnerID:    ownerID,
	}
	m.put(session)
	return session, nil
}

// CreateFromCache opens a session over flattened cache entries.
func (m *Manager) CreateFromCache(ownerID int64, title string, entries []domain.CacheEntry) (*domain.Carousel, error) {
	if len(entries) == 0 {
		return nil, apperrors.Validation("cannot create carousel with no records")
	}

	session := &domain.Carousel{
		ID:         uuid.NewString(),
		Title:      title,
		Provenance: domain.ProvenanceCached,
		Cached:     entries,
		Total:      len(entries),
		OwnerID:    ownerID,
	}
	m.put(session)
	return session, nil
}

func (m *Manager) put(session *domain.Carousel) {
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Debug("carousel created",
		"session", session.ID,
		"owner", session.OwnerID,
		"records", session.Total,
		"provenance", session.Provenance,
	)
}

// Get returns the session for id.
func (m *Manager) Get(sessionID string) (*domain.Carousel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, apperrors.NotFoundf("carousel session %s", sessionID)
	}
	return session, nil
}

// Step moves the session cursor one record in the given direction, wrapping
// at both ends. Only the session owner may step; anyone else gets a
// forbidden error and the cursor stays where it was.
func (m *Manager) Step(sessionID string, ownerID int64, dir domain.StepDirection) (*domain.Carousel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, apperrors.NotFoundf("carousel session %s", sessionID)
	}
	if session.OwnerID != ownerID {
		return nil, apperrors.Forbidden("carousel session belongs to another owner")
	}

	delta := 1
	if dir == domain.StepPrev {
		delta = -1
	}
	session.Advance(delta)
	return session, nil
}

// Delete removes the session. Deleting an absent session is a no-op so a
// double tap on a close control never errors; deleting someone else's
// session is forbidden.
func (m *Manager) Delete(sessionID string, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	if session.OwnerID != ownerID {
		return apperrors.Forbidden("carousel session belongs to another owner")
	}

	delete(m.sessions, sessionID)
	m.logger.Debug("carousel deleted", "session", sessionID, "owner", ownerID)
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
