package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// HTTP API
	HTTPPort     int     `env:"HTTP_PORT" default:"8080"`
	APIRateLimit float64 `env:"API_RATE_LIMIT" default:"10"`
	APIRateBurst int     `env:"API_RATE_BURST" default:"20"`

	// Redis
	RedisHost        string        `env:"REDIS_HOST" default:"localhost"`
	RedisPort        int           `env:"REDIS_PORT" default:"6379"`
	RedisDB          int           `env:"REDIS_DB" default:"1"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" default:"5s"`

	// Recommendations
	RecommendLimit      int    `env:"RECOMMEND_LIMIT" default:"20"`
	RecommendSimilarity string `env:"RECOMMEND_SIMILARITY" default:"distance"`
	DefaultReviewerID   int64  `env:"DEFAULT_REVIEWER_ID" default:"10000"`

	// Movie similarity batch
	SimilarMoviesN          int           `env:"SIMILAR_MOVIES_N" default:"10"`
	SimilarMoviesSimilarity string        `env:"SIMILAR_MOVIES_SIMILARITY" default:"distance"`
	BatchWorkers            int           `env:"BATCH_WORKERS" default:"30"`
	BatchTimeout            time.Duration `env:"BATCH_TIMEOUT" default:"0"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

// LoadConfig loads configuration from a .env file, if present, and the
// process environment.
func LoadConfig() (*Config, error) {
	// a missing .env is fine, system env vars still apply
	_ = godotenv.Load(".env")

	config := &Config{}

	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}

	// HTTP API
	if err := loadEnvInt(&config.HTTPPort, "HTTP_PORT", 8080); err != nil {
		return nil, err
	}
	if err := loadEnvFloat(&config.APIRateLimit, "API_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.APIRateBurst, "API_RATE_BURST", 20); err != nil {
		return nil, err
	}

	// Redis
	if err := loadEnvString(&config.RedisHost, "REDIS_HOST", "localhost"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.RedisPort, "REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.RedisDB, "REDIS_DB", 1); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisPassword, "REDIS_PASSWORD", ""); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.RedisDialTimeout, "REDIS_DIAL_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	// Recommendations
	if err := loadEnvInt(&config.RecommendLimit, "RECOMMEND_LIMIT", 20); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RecommendSimilarity, "RECOMMEND_SIMILARITY", "distance"); err != nil {
		return nil, err
	}
	if err := loadEnvInt64(&config.DefaultReviewerID, "DEFAULT_REVIEWER_ID", 10000); err != nil {
		return nil, err
	}

	// Movie similarity batch
	if err := loadEnvInt(&config.SimilarMoviesN, "SIMILAR_MOVIES_N", 10); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.SimilarMoviesSimilarity, "SIMILAR_MOVIES_SIMILARITY", "distance"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.BatchWorkers, "BATCH_WORKERS", 30); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.BatchTimeout, "BATCH_TIMEOUT", 0); err != nil {
		return nil, err
	}

	// Logging
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "info"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", "text"); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt64(target *int64, key string, defaultValue int64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errors = append(errors, "HTTP_PORT must be between 1 and 65535")
	}
	if c.RedisPort < 1 || c.RedisPort > 65535 {
		errors = append(errors, "REDIS_PORT must be between 1 and 65535")
	}
	if strings.TrimSpace(c.RedisHost) == "" {
		errors = append(errors, "REDIS_HOST must not be empty")
	}
	if c.RedisDB < 0 {
		errors = append(errors, "REDIS_DB must not be negative")
	}
	if c.RecommendLimit < 1 {
		errors = append(errors, "RECOMMEND_LIMIT must be positive")
	}
	if c.SimilarMoviesN < 1 {
		errors = append(errors, "SIMILAR_MOVIES_N must be positive")
	}
	if c.BatchWorkers < 1 {
		errors = append(errors, "BATCH_WORKERS must be positive")
	}
	if c.BatchTimeout < 0 {
		errors = append(errors, "BATCH_TIMEOUT must not be negative")
	}
	if c.APIRateLimit <= 0 || c.APIRateBurst < 1 {
		errors = append(errors, "API_RATE_LIMIT and API_RATE_BURST must be positive")
	}

	validSimilarities := []string{"distance", "euclidean", "pearson"}
	if !contains(validSimilarities, strings.ToLower(c.RecommendSimilarity)) {
		errors = append(errors, fmt.Sprintf("RECOMMEND_SIMILARITY must be one of: %s", strings.Join(validSimilarities, ", ")))
	}
	if !contains(validSimilarities, strings.ToLower(c.SimilarMoviesSimilarity)) {
		errors = append(errors, fmt.Sprintf("SIMILAR_MOVIES_SIMILARITY must be one of: %s", strings.Join(validSimilarities, ", ")))
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}
	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}
	return nil
}

// RedisAddr returns host:port of the backing store.
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisHost, strconv.Itoa(c.RedisPort))
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
