package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sekaibot/sekai-server/internal/http/response"
)

// handleSearchAnime resolves a title through the cache tiers.
// GET /api/v1/anime/search?q=<title>&limit=<n>
func (s *Server) handleSearchAnime(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, "q parameter is required", s.logger)
		return
	}
	limit := queryInt(r, "limit", 10)

	outcome, err := s.catalog.Search(r.Context(), query, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{
		"entries":    outcome.Entries,
		"from_cache": outcome.Cached,
	}, s.logger)
}

// handleGetAnime returns the flattened entry for a catalog id.
// GET /api/v1/anime/{animeID}
func (s *Server) handleGetAnime(w http.ResponseWriter, r *http.Request) {
	animeID := chi.URLParam(r, "animeID")
	if animeID == "" {
		response.BadRequest(w, "anime id is required", s.logger)
		return
	}

	entry, err := s.catalog.GetAnime(r.Context(), animeID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, entry, s.logger)
}

// handleBrowseGenre returns a randomized genre selection.
// GET /api/v1/anime/browse?genre=<name>&min_score=<n>&limit=<n>
func (s *Server) handleBrowseGenre(w http.ResponseWriter, r *http.Request) {
	genre := r.URL.Query().Get("genre")
	if genre == "" {
		response.BadRequest(w, "genre parameter is required", s.logger)
		return
	}
	minScore := queryInt(r, "min_score", 7)
	limit := queryInt(r, "limit", 10)

	records, err := s.catalog.BrowseGenre(r.Context(), genre, minScore, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{"records": records}, s.logger)
}

// handleTopByYear returns the top scored records for a year.
// GET /api/v1/anime/top?year=<n>&min_score=<n>
func (s *Server) handleTopByYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		response.BadRequest(w, "year parameter is required", s.logger)
		return
	}
	minScore := queryInt(r, "min_score", 8)

	records, svcErr := s.catalog.TopByYear(r.Context(), year, minScore)
	if svcErr != nil {
		response.HandleError(w, svcErr, s.logger)
		return
	}

	response.Success(w, map[string]any{"records": records}, s.logger)
}

// queryInt reads an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
