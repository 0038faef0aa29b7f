// Package api provides the HTTP API server and handlers for the sekai server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sekaibot/sekai-server/internal/ratelimit"
	"github.com/sekaibot/sekai-server/internal/service"
	"github.com/sekaibot/sekai-server/internal/validation"
)

// Per-IP request budget for the API surface.
const (
	requestsPerSecond = 10.0
	requestBurst      = 20
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	catalog   *service.CatalogService
	carousels *service.CarouselService
	validator *validation.Validator
	limiter   *ratelimit.KeyedRateLimiter
	router    *chi.Mux
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(catalog *service.CatalogService, carousels *service.CarouselService, logger *slog.Logger) *Server {
	s := &Server{
		catalog:   catalog,
		carousels: carousels,
		validator: validation.New(),
		limiter:   ratelimit.New(requestsPerSecond, requestBurst),
		router:    chi.NewRouter(),
		logger:    logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background resources held by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(s.limiter, s.logger))

		r.Route("/anime", func(r chi.Router) {
			r.Get("/search", s.handleSearchAnime)
			r.Get("/browse", s.handleBrowseGenre)
			r.Get("/top", s.handleTopByYear)
			r.Get("/{animeID}", s.handleGetAnime)
		})

		r.Route("/carousels", func(r chi.Router) {
			r.Post("/", s.handleCreateCarousel)
			r.Get("/{carouselID}", s.handleGetCarousel)
			r.Post("/{carouselID}/step", s.handleStepCarousel)
			r.Delete("/{carouselID}", s.handleDeleteCarousel)
		})
	})
}

// handleHealthCheck responds to health check requests.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
