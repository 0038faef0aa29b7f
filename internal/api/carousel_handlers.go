package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sekaibot/sekai-server/internal/domain"
	"github.com/sekaibot/sekai-server/internal/http/response"
	"github.com/sekaibot/sekai-server/internal/service"
)

// CreateCarouselRequest opens a paging session from one of the lookup
// sources. Exactly the fields for the chosen source are required.
type CreateCarouselRequest struct {
	OwnerID  int64  `json:"owner_id" validate:"required"`
	Source   string `json:"source" validate:"required,oneof=search genre year"`
	Title    string `json:"title" validate:"omitempty,max=256"`
	Genre    string `json:"genre" validate:"omitempty,max=64"`
	Year     int    `json:"year" validate:"omitempty,gte=1950"`
	MinScore int    `json:"min_score" validate:"gte=0,lte=10"`
	Limit    int    `json:"limit" validate:"omitempty,gte=1,lte=50"`
}

// StepCarouselRequest moves a session cursor.
type StepCarouselRequest struct {
	RequesterID int64  `json:"requester_id" validate:"required"`
	Direction   string `json:"direction" validate:"required,oneof=prev next"`
}

// handleCreateCarousel opens a carousel session.
// POST /api/v1/carousels
func (s *Server) handleCreateCarousel(w http.ResponseWriter, r *http.Request) {
	var req CreateCarouselRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = 10
	}

	var (
		frame *service.CarouselFrame
		err   error
	)
	switch req.Source {
	case "search":
		if req.Title == "" {
			response.BadRequest(w, "title is required for search carousels", s.logger)
			return
		}
		frame, err = s.carousels.CreateFromSearch(r.Context(), req.OwnerID, req.Title, limit)
	case "genre":
		if req.Genre == "" {
			response.BadRequest(w, "genre is required for genre carousels", s.logger)
			return
		}
		frame, err = s.carousels.CreateFromGenre(r.Context(), req.OwnerID, req.Genre, req.MinScore, limit)
	case "year":
		if req.Year == 0 {
			response.BadRequest(w, "year is required for year carousels", s.logger)
			return
		}
		frame, err = s.carousels.CreateFromYear(r.Context(), req.OwnerID, req.Year, req.MinScore)
	}
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, frame, s.logger)
}

// handleGetCarousel returns the current frame without moving the cursor.
// GET /api/v1/carousels/{carouselID}
func (s *Server) handleGetCarousel(w http.ResponseWriter, r *http.Request) {
	frame, err := s.carousels.Get(chi.URLParam(r, "carouselID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, frame, s.logger)
}

// handleStepCarousel moves the cursor one record in either direction.
// POST /api/v1/carousels/{carouselID}/step
func (s *Server) handleStepCarousel(w http.ResponseWriter, r *http.Request) {
	var req StepCarouselRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	dir := domain.StepNext
	if req.Direction == "prev" {
		dir = domain.StepPrev
	}

	frame, err := s.carousels.Step(chi.URLParam(r, "carouselID"), req.RequesterID, dir)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, frame, s.logger)
}

// handleDeleteCarousel closes a session.
// DELETE /api/v1/carousels/{carouselID}?requester_id=<id>
func (s *Server) handleDeleteCarousel(w http.ResponseWriter, r *http.Request) {
	requesterID, err := strconv.ParseInt(r.URL.Query().Get("requester_id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "requester_id parameter is required", s.logger)
		return
	}

	if err := s.carousels.Delete(chi.URLParam(r, "carouselID"), requesterID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}
