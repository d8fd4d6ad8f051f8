package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"recommendr/internal/microservices/http-api/dto"
	"recommendr/internal/microservices/http-api/service"
	"recommendr/internal/similarity"
)

const defaultSimilarReviewers = 5

type ReviewerHandler struct {
	svc               service.RecommendationService
	defaultSimilarity string
	logger            *slog.Logger
}

// NewReviewerHandler falls back to euclidean distance when defaultSimilarity
// is empty.
func NewReviewerHandler(svc service.RecommendationService, defaultSimilarity string, logger *slog.Logger) *ReviewerHandler {
	if defaultSimilarity == "" {
		defaultSimilarity = similarity.NameDistance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewerHandler{svc: svc, defaultSimilarity: defaultSimilarity, logger: logger}
}

func (h *ReviewerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:reviewer_id/unrated", h.Unrated)
	rg.GET("/:reviewer_id/recommendations", h.Recommendations)
	rg.GET("/:reviewer_id/similar", h.Similar)
}

// Unrated lists movies the reviewer has not rated
// GET /api/reviewers/:reviewer_id/unrated
func (h *ReviewerHandler) Unrated(c *gin.Context) {
	reviewerID, ok := parseID(c, "reviewer_id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ids, err := h.svc.UnratedMoviesFor(ctx, reviewerID)
	if err != nil {
		internalError(c, h.logger, "unrated_lookup_failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.UnratedResponse{ReviewerID: reviewerID, MovieIDs: ids, Count: len(ids)})
}

// Recommendations ranks unseen movies by predicted rating
// GET /api/reviewers/:reviewer_id/recommendations?limit=&similarity=
func (h *ReviewerHandler) Recommendations(c *gin.Context) {
	reviewerID, ok := parseID(c, "reviewer_id")
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	name, fn, ok := similarityParam(c, h.defaultSimilarity)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	ranked, err := h.svc.RecommendFor(ctx, reviewerID, limit, fn)
	if err != nil {
		internalError(c, h.logger, "recommend_failed", err)
		return
	}
	items, err := withNames(ctx, h.svc, ranked)
	if err != nil {
		internalError(c, h.logger, "movie_name_lookup_failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.RecommendationsResponse{ReviewerID: reviewerID, Similarity: name, Items: items})
}

// Similar ranks the other reviewers by taste similarity
// GET /api/reviewers/:reviewer_id/similar?limit=&similarity=
func (h *ReviewerHandler) Similar(c *gin.Context) {
	reviewerID, ok := parseID(c, "reviewer_id")
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	if limit == 0 {
		limit = defaultSimilarReviewers
	}
	_, fn, ok := similarityParam(c, h.defaultSimilarity)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	closest, err := h.svc.ClosestReviewers(ctx, reviewerID, limit, fn)
	if err != nil {
		internalError(c, h.logger, "closest_reviewers_failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromScoredToSimilarReviewers(closest))
}
