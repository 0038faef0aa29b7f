package api

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekaibot/sekai-server/internal/cache"
	"github.com/sekaibot/sekai-server/internal/carousel"
	"github.com/sekaibot/sekai-server/internal/catalog/shikimori"
	"github.com/sekaibot/sekai-server/internal/domain"
	"github.com/sekaibot/sekai-server/internal/http/response"
	"github.com/sekaibot/sekai-server/internal/service"
)

type fakeCatalog struct {
	searchResults []domain.RawAnime
	byID          map[string]*domain.RawAnime
}

func (f *fakeCatalog) SearchAnime(_ context.Context, _ string, _ int) ([]domain.RawAnime, error) {
	return f.searchResults, nil
}

func (f *fakeCatalog) AnimeByID(_ context.Context, id string) (*domain.RawAnime, error) {
	return f.byID[id], nil
}

type fakeBrowser struct {
	records []domain.RawAnime
}

func (f *fakeBrowser) BrowseByGenre(_ context.Context, _ shikimori.BrowseParams) ([]domain.RawAnime, error) {
	return f.records, nil
}

func (f *fakeBrowser) TopByYear(_ context.Context, _, _ int) ([]domain.RawAnime, error) {
	return f.records, nil
}

func fixture() []domain.RawAnime {
	return []domain.RawAnime{
		{ID: "1", Name: "Cowboy Bebop", Score: 8.75},
		{ID: "5", Name: "Trigun", Score: 8.22},
	}
}

func newTestServer(t *testing.T, catalog *fakeCatalog, browser *fakeBrowser) *Server {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	dir := t.TempDir()

	byName, err := cache.NewFileIndex[map[string]domain.CacheEntry](filepath.Join(dir, "by_name.json"), logger)
	require.NoError(t, err)
	byID, err := cache.NewFileIndex[domain.CacheEntry](filepath.Join(dir, "by_id.json"), logger)
	require.NoError(t, err)

	coordinator := cache.NewCoordinator(cache.Options{
		ByName:            byName,
		ByID:              byID,
		Catalog:           catalog,
		Logger:            logger,
		PosterPlaceholder: "https://cdn.test/placeholder.jpg",
	})

	catalogSvc := service.NewCatalogService(coordinator, browser, logger)
	carouselSvc := service.NewCarouselService(carousel.NewManager(logger), catalogSvc, logger)

	server := NewServer(catalogSvc, carouselSvc, logger)
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, server *Server, method, path, body string) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	var envelope response.Envelope
	if w.Body.Len() > 0 && w.Code != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t, &fakeCatalog{}, &fakeBrowser{})

	w, _ := doRequest(t, server, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestSearchAnimeEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeCatalog{searchResults: fixture()}, &fakeBrowser{})

	w, envelope := doRequest(t, server, http.MethodGet, "/api/v1/anime/search?q=bebop", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["from_cache"])

	entries, ok := data["entries"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 2)

	// Repeat search comes from the by-name bucket.
	w, envelope = doRequest(t, server, http.MethodGet, "/api/v1/anime/search?q=BEBOP", "")
	require.Equal(t, http.StatusOK, w.Code)
	data = envelope.Data.(map[string]any)
	assert.Equal(t, true, data["from_cache"])
}

func TestSearchAnimeMissingQuery(t *testing.T) {
	server := newTestServer(t, &fakeCatalog{}, &fakeBrowser{})

	w, _ := doRequest(t, server, http.MethodGet, "/api/v1/anime/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchAnimeNoResults(t *testing.T) {
	server := newTestServer(t, &fakeCatalog{}, &fakeBrowser{})

	w, envelope := doRequest(t, server, http.MethodGet, "/api/v1/anime/search?q=nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "EMPTY_RESULT", envelope.Code)
}

func TestGetAnimeEndpoint(t *testing.T) {
	fix := fixture()
	server := newTestServer(t, &fakeCatalog{byID: map[string]*domain.RawAnime{"1": &fix[0]}}, &fakeBrowser{})

	w, envelope := doRequest(t, server, http.MethodGet, "/api/v1/anime/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	entry, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Cowboy Bebop", entry["name"])

	w, _ = doRequest(t, server, http.MethodGet, "/api/v1/anime/404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBrowseGenreEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeCatalog{}, &fakeBrowser{records: fixture()})

	w, envelope := doRequest(t, server, http.MethodGet, "/api/v1/anime/browse?genre=%D0%B4%D1%80%D0%B0%D0%BC%D0%B0&min_score=7", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := envelope.Data.(map[string]any)
	records, ok := data["records"].([]any)
	require.True(t, ok)
	assert.Len(t, records, 2)
}

func TestBrowseGenreUnknown(t *testing.T) {
	server := newTestServer(t, &fakeCatalog{}, &fakeBrowser{records: fixture()})

	w, _ := doRequest(t, server, http.MethodGet, "/api/v1/anime/browse?genre=unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTopByYearEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeCatalog{}, &fakeBrowser{records: fixture()})

	w, _ := doRequest(t, server, http.MethodGet, "/api/v1/anime/top?year=1998&min_score=8", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(t, server, http.MethodGet, "/api/v1/anime/top", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCarouselLifecycle(t *testing.T) {
	server := newTestServer(t, &fakeCatalog{searchResults: fixture()}, &fakeBrowser{})

	// Create.
	w, envelope := doRequest(t, server, http.MethodPost, "/api/v1/carousels",
		`{"owner_id": 100, "source": "search", "title": "bebop"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	frame := envelope.Data.(map[string]any)
	sessionID, ok := frame["session_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, float64(0), frame["index"])
	assert.Equal(t, float64(2), frame["total"])

	// Step forward.
	w, envelope = doRequest(t, server, http.MethodPost, "/api/v1/carousels/"+sessionID+"/step",
		`{"requester_id": 100, "direction": "next"}`)
	require.Equal(t, http.StatusOK, w.Code)
	frame = envelope.Data.(map[string]any)
	assert.Equal(t, float64(1), frame["index"])

	// Step by someone else is forbidden.
	w, envelope = doRequest(t, server, http.MethodPost, "/api/v1/carousels/"+sessionID+"/step",
		`{"requester_id": 200, "direction": "next"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", envelope.Code)

	// Read back.
	w, envelope = doRequest(t, server, http.MethodGet, "/api/v1/carousels/"+sessionID, "")
	require.Equal(t, http.StatusOK, w.Code)
	frame = envelope.Data.(map[string]any)
	assert.Equal(t, float64(1), frame["index"])

	// Delete, then the session is gone.
	w, _ = doRequest(t, server, http.MethodDelete, "/api/v1/carousels/"+sessionID+"?requester_id=100", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = doRequest(t, server, http.MethodGet, "/api/v1/carousels/"+sessionID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCarouselValidation(t *testing.T) {
	server := newTestServer(t, &fakeCatalog{searchResults: fixture()}, &fakeBrowser{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed body", `{not json`},
		{"missing owner", `{"source": "search", "title": "bebop"}`},
		{"bad source", `{"owner_id": 1, "source": "magic"}`},
		{"search without title", `{"owner_id": 1, "source": "search"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doRequest(t, server, http.MethodPost, "/api/v1/carousels", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestDeleteCarouselMissingRequester(t *testing.T) {
	server := newTestServer(t, &fakeCatalog{searchResults: fixture()}, &fakeBrowser{})

	w, _ := doRequest(t, server, http.MethodDelete, "/api/v1/carousels/some-id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
