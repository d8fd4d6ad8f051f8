package recommend

import (
	"log/slog"

	"recommendr/internal/store"
)

// EngineConfig carries the tunables the composition root reads from config.
type EngineConfig struct {
	RecommendLimit int
}

// Engine bundles the rating store with the services built on it. It is what
// the CLI and HTTP API talk to.
type Engine struct {
	store.RatingStore
	*SimilarityService
	*Recommender
	*Precomputer
}

func NewEngine(st store.RatingStore, cfg EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	sims := NewSimilarityService(st)
	return &Engine{
		RatingStore:       st,
		SimilarityService: sims,
		Recommender:       NewRecommender(st, sims, cfg.RecommendLimit, logger),
		Precomputer:       NewPrecomputer(st, sims, logger),
	}
}
