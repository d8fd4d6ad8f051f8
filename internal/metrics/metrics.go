// Package metrics exposes Prometheus collectors for the HTTP API, the
// recommender and the similar-movies batch.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Recommendation Metrics
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Time to rank recommendations for one reviewer",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"result"},
	)

	// Similar-movies Batch Metrics
	BatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similarity_batch_runs_total",
			Help: "Similar-movies batch runs by result (complete, incomplete, error)",
		},
		[]string{"result"},
	)

	BatchMoviesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similarity_batch_movies_total",
			Help: "Movies handled by the similar-movies batch by outcome (saved, failed, skipped)",
		},
		[]string{"outcome"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similarity_batch_duration_seconds",
			Help:    "Duration of similar-movies batch runs",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	BatchLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "similarity_batch_last_success_timestamp",
			Help: "Unix timestamp of the last complete similar-movies batch",
		},
	)
)

func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

func RecordRecommendation(duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	RecommendDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordBatch records one finished batch run. result is "complete",
// "incomplete" or "error".
func RecordBatch(result string, saved, failed, skipped int, duration time.Duration) {
	BatchRunsTotal.WithLabelValues(result).Inc()
	BatchMoviesTotal.WithLabelValues("saved").Add(float64(saved))
	BatchMoviesTotal.WithLabelValues("failed").Add(float64(failed))
	BatchMoviesTotal.WithLabelValues("skipped").Add(float64(skipped))
	BatchDuration.Observe(duration.Seconds())
	if result == "complete" {
		BatchLastSuccess.SetToCurrentTime()
	}
}
