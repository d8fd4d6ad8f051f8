// Package httpapi exposes the recommender over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recommendr/internal/config"
	"recommendr/internal/microservices/http-api/handler"
	"recommendr/internal/microservices/http-api/middleware"
	"recommendr/internal/microservices/http-api/service"
	"recommendr/internal/recommend"
	"recommendr/internal/similarity"
)

type RouterOptions struct {
	// Requests per second and burst allowed per client IP. Zero disables
	// rate limiting.
	RateLimit float64
	RateBurst int

	DefaultSimilarity string
	SimilarMoviesN    int
	Batch             recommend.BatchOptions
	Release           bool
}

// RouterOptionsFromConfig maps the API and batch settings of cfg.
func RouterOptionsFromConfig(cfg *config.Config) (RouterOptions, error) {
	fn, err := similarity.ByName(cfg.SimilarMoviesSimilarity)
	if err != nil {
		return RouterOptions{}, err
	}
	return RouterOptions{
		RateLimit:         cfg.APIRateLimit,
		RateBurst:         cfg.APIRateBurst,
		DefaultSimilarity: cfg.RecommendSimilarity,
		SimilarMoviesN:    cfg.SimilarMoviesN,
		Batch: recommend.BatchOptions{
			N:          cfg.SimilarMoviesN,
			Similarity: fn,
			Workers:    cfg.BatchWorkers,
			Timeout:    cfg.BatchTimeout,
		},
		Release: cfg.IsProduction(),
	}, nil
}

func NewRouter(svc service.RecommendationService, opts RouterOptions, logger *slog.Logger) *gin.Engine {
	if opts.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())
	if opts.RateLimit > 0 {
		r.Use(middleware.NewRateLimiter(opts.RateLimit, opts.RateBurst).Middleware())
	}

	admin := handler.NewAdminHandler(svc, opts.Batch, logger)
	r.GET("/health", admin.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		handler.NewReviewerHandler(svc, opts.DefaultSimilarity, logger).RegisterRoutes(api.Group("/reviewers"))
		handler.NewMovieHandler(svc, opts.SimilarMoviesN, logger).RegisterRoutes(api.Group("/movies"))
		handler.NewRatingHandler(svc, logger).RegisterRoutes(api.Group("/ratings"))
		admin.RegisterRoutes(api.Group("/admin"))
	}
	return r
}

// Serve runs an HTTP server on addr until ctx is cancelled, then drains
// in-flight requests for up to shutdownTimeout.
func Serve(ctx context.Context, addr string, h http.Handler, shutdownTimeout time.Duration, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("http_server_listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	logger.Info("http_server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errChan
}
