package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"recommendr/internal/metrics"
	"recommendr/internal/similarity"
	"recommendr/internal/store"
)

const DefaultRecommendLimit = 20

// Recommender predicts scores for the movies a reviewer has not rated, as the
// similarity-weighted average of other reviewers' scores.
type Recommender struct {
	store        Store
	sims         *SimilarityService
	defaultLimit int
	logger       *slog.Logger
}

// NewRecommender builds a recommender. defaultLimit applies when callers pass
// a non-positive limit.
func NewRecommender(st Store, sims *SimilarityService, defaultLimit int, logger *slog.Logger) *Recommender {
	if defaultLimit <= 0 {
		defaultLimit = DefaultRecommendLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recommender{store: st, sims: sims, defaultLimit: defaultLimit, logger: logger}
}

// RecommendFor returns up to limit (predicted score, movie id) entries for
// reviewerID, best first; equal predictions keep the higher movie id first.
// Reviewers with a similarity <= 0 do not contribute, and movies nobody
// similar has rated are left out. An unknown reviewer gets no positive
// neighbors under Pearson and uniform neighbors under distance.
func (r *Recommender) RecommendFor(ctx context.Context, reviewerID int64, limit int, fn similarity.Func) ([]store.Scored, error) {
	start := time.Now()
	recs, err := r.rank(ctx, reviewerID, limit, fn)
	metrics.RecordRecommendation(time.Since(start), err)
	return recs, err
}

func (r *Recommender) rank(ctx context.Context, reviewerID int64, limit int, fn similarity.Func) ([]store.Scored, error) {
	if limit <= 0 {
		limit = r.defaultLimit
	}

	unrated, err := r.store.UnratedMoviesFor(ctx, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("recommend for %d: %w", reviewerID, err)
	}

	// similarity to a given neighbor cannot change within one call
	neighborSim := make(map[int64]float64)
	similarityTo := func(other int64) (float64, error) {
		if sim, ok := neighborSim[other]; ok {
			return sim, nil
		}
		sim, err := r.sims.ReviewerSimilarity(ctx, reviewerID, other, fn)
		if err != nil {
			return 0, err
		}
		neighborSim[other] = sim
		return sim, nil
	}

	rankings := make([]store.Scored, 0)
	for _, movieID := range unrated {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reviewers, err := r.store.ReviewersForMovie(ctx, movieID)
		if err != nil {
			return nil, fmt.Errorf("recommend for %d: %w", reviewerID, err)
		}

		var total, simSum float64
		for _, other := range reviewers {
			if other == reviewerID {
				continue
			}
			sim, err := similarityTo(other)
			if err != nil {
				return nil, fmt.Errorf("recommend for %d: %w", reviewerID, err)
			}
			if sim <= 0 {
				continue
			}
			score, ok, err := r.store.ReviewerRatingForMovie(ctx, other, movieID)
			if err != nil {
				return nil, fmt.Errorf("recommend for %d: %w", reviewerID, err)
			}
			if !ok {
				continue
			}
			total += score * sim
			simSum += sim
		}

		if simSum > 0 {
			rankings = append(rankings, store.Scored{Score: total / simSum, ID: movieID})
		}
	}

	sortScored(rankings)
	r.logger.Debug("recommendations_ranked",
		"reviewer_id", reviewerID,
		"unrated", len(unrated),
		"ranked", len(rankings),
	)
	return truncate(rankings, limit), nil
}
