package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"recommendr/internal/microservices/http-api/dto"
	"recommendr/internal/microservices/http-api/middleware"
	"recommendr/internal/microservices/http-api/service"
	"recommendr/internal/similarity"
	"recommendr/internal/store"
)

const maxLimit = 1000

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return id, true
}

// parseLimit returns 0 when the query has no limit.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return 0, false
	}
	return limit, true
}

func similarityParam(c *gin.Context, fallback string) (string, similarity.Func, bool) {
	name := c.DefaultQuery("similarity", fallback)
	fn, err := similarity.ByName(name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", nil, false
	}
	return name, fn, true
}

func internalError(c *gin.Context, logger *slog.Logger, event string, err error) {
	logger.Error(event, "error", err, "path", c.FullPath(), "request_id", c.GetString(middleware.RequestIDKey))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func withNames(ctx context.Context, svc service.RecommendationService, scored []store.Scored) ([]dto.RankedMovieResponse, error) {
	items := make([]dto.RankedMovieResponse, 0, len(scored))
	for _, s := range scored {
		name, _, err := svc.MovieName(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, dto.RankedMovieResponse{MovieID: s.ID, Name: name, Score: s.Score})
	}
	return items, nil
}
