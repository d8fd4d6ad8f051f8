package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"recommendr/internal/microservices/http-api/dto"
	"recommendr/internal/microservices/http-api/service"
)

type RatingHandler struct {
	svc    service.RecommendationService
	logger *slog.Logger
}

func NewRatingHandler(svc service.RecommendationService, logger *slog.Logger) *RatingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RatingHandler{svc: svc, logger: logger}
}

func (h *RatingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
}

// Create records a rating for a known movie. Rating the same movie again
// overwrites the score.
// POST /api/ratings
func (h *RatingHandler) Create(c *gin.Context) {
	var req dto.CreateRatingDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	_, found, err := h.svc.MovieName(ctx, req.MovieID)
	if err != nil {
		internalError(c, h.logger, "movie_lookup_failed", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
		return
	}

	if err := h.svc.AddRating(ctx, req.ReviewerID, req.MovieID, req.Score); err != nil {
		internalError(c, h.logger, "add_rating_failed", err)
		return
	}
	h.logger.Info("rating_recorded", "reviewer_id", req.ReviewerID, "movie_id", req.MovieID, "score", req.Score)
	c.JSON(http.StatusCreated, req)
}
