package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, 6379, cfg.RedisPort)
	assert.Equal(t, 1, cfg.RedisDB)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, 20, cfg.RecommendLimit)
	assert.Equal(t, 10, cfg.SimilarMoviesN)
	assert.Equal(t, 30, cfg.BatchWorkers)
	assert.Equal(t, time.Duration(0), cfg.BatchTimeout)
	assert.Equal(t, int64(10000), cfg.DefaultReviewerID)
	assert.Equal(t, "distance", cfg.RecommendSimilarity)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("BATCH_WORKERS", "8")
	t.Setenv("BATCH_TIMEOUT", "90s")
	t.Setenv("RECOMMEND_SIMILARITY", "pearson")
	t.Setenv("GO_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "cache.internal:6380", cfg.RedisAddr())
	assert.Equal(t, 4, cfg.RedisDB)
	assert.Equal(t, 8, cfg.BatchWorkers)
	assert.Equal(t, 90*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "pearson", cfg.RecommendSimilarity)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfigInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"NonNumericPort", "REDIS_PORT", "six"},
		{"PortOutOfRange", "REDIS_PORT", "70000"},
		{"BadDuration", "BATCH_TIMEOUT", "soon"},
		{"ZeroWorkers", "BATCH_WORKERS", "0"},
		{"UnknownSimilarity", "SIMILAR_MOVIES_SIMILARITY", "cosine"},
		{"UnknownLogLevel", "LOG_LEVEL", "verbose"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
