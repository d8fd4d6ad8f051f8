package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"recommendr/internal/microservices/http-api/dto"
	"recommendr/internal/microservices/http-api/service"
	"recommendr/internal/recommend"
)

type MovieHandler struct {
	svc             service.RecommendationService
	defaultNeighbor int
	logger          *slog.Logger
}

func NewMovieHandler(svc service.RecommendationService, defaultNeighbors int, logger *slog.Logger) *MovieHandler {
	if defaultNeighbors <= 0 {
		defaultNeighbors = recommend.DefaultSimilarMoviesN
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MovieHandler{svc: svc, defaultNeighbor: defaultNeighbors, logger: logger}
}

func (h *MovieHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:movie_id", h.Get)
	rg.GET("/:movie_id/similar", h.Similar)
}

// GET /api/movies/:movie_id
func (h *MovieHandler) Get(c *gin.Context) {
	movieID, ok := parseID(c, "movie_id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	movie, err := h.svc.MovieDetails(ctx, movieID)
	if err != nil {
		internalError(c, h.logger, "movie_lookup_failed", err)
		return
	}
	if movie == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
		return
	}
	c.JSON(http.StatusOK, dto.FromStoreMovie(movie))
}

// Similar serves the precomputed neighbor list; it never computes one.
// GET /api/movies/:movie_id/similar?limit=
func (h *MovieHandler) Similar(c *gin.Context) {
	movieID, ok := parseID(c, "movie_id")
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	if limit == 0 {
		limit = h.defaultNeighbor
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	neighbors, err := h.svc.SimilarMovies(ctx, movieID, limit)
	if err != nil {
		internalError(c, h.logger, "similar_movies_failed", err)
		return
	}
	items, err := withNames(ctx, h.svc, neighbors)
	if err != nil {
		internalError(c, h.logger, "movie_name_lookup_failed", err)
		return
	}
	c.JSON(http.StatusOK, items)
}
