package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"recommendr/internal/microservices/http-api/dto"
	"recommendr/internal/microservices/http-api/service"
	"recommendr/internal/recommend"
	"recommendr/internal/similarity"
)

type AdminHandler struct {
	svc    service.RecommendationService
	batch  recommend.BatchOptions
	logger *slog.Logger
}

// NewAdminHandler takes the batch options configured for the deployment;
// requests may override them field by field.
func NewAdminHandler(svc service.RecommendationService, batch recommend.BatchOptions, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{svc: svc, batch: batch, logger: logger}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/precompute", h.Precompute)
}

func (h *AdminHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Precompute runs the similar-movies batch synchronously. A client that
// disconnects does not abort the run; only the batch timeout does.
// POST /api/admin/precompute
func (h *AdminHandler) Precompute(c *gin.Context) {
	var req dto.PrecomputeDTO
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	opts := h.batch
	if req.N > 0 {
		opts.N = req.N
	}
	if req.Workers > 0 {
		opts.Workers = req.Workers
	}
	if req.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	if req.Similarity != "" {
		fn, err := similarity.ByName(req.Similarity)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.Similarity = fn
	}

	report, err := h.svc.CalculateSimilarMovies(context.WithoutCancel(c.Request.Context()), opts)
	resp := dto.FromBatchReport(report, err)
	if err != nil {
		if errors.Is(err, recommend.ErrBatchIncomplete) {
			h.logger.Warn("precompute_incomplete", "run_id", resp.RunID, "failed", len(resp.Failed), "skipped", resp.Skipped)
		} else {
			h.logger.Error("precompute_failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
