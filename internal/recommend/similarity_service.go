// Package recommend ranks reviewers, movies and unrated movies by
// collaborative-filtering similarity over the rating store.
package recommend

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"recommendr/internal/similarity"
	"recommendr/internal/store"
)

// Store is the part of the rating store the engine reads and writes.
type Store interface {
	Movies(ctx context.Context) ([]int64, error)
	Reviewers(ctx context.Context) ([]int64, error)
	UnratedMoviesFor(ctx context.Context, reviewerID int64) ([]int64, error)
	ReviewersForMovie(ctx context.Context, movieID int64) ([]int64, error)
	ReviewerRatingForMovie(ctx context.Context, reviewerID, movieID int64) (float64, bool, error)
	CommonRatingsForReviewers(ctx context.Context, reviewerA, reviewerB int64) ([]similarity.Pair, error)
	CommonRatingsForMovies(ctx context.Context, movieA, movieB int64) ([]similarity.Pair, error)
	SaveSimilarityScores(ctx context.Context, movieID int64, scores []store.Scored) error
}

// SimilarityService computes similarities between pairs of reviewers or
// movies on demand. Nothing is cached.
type SimilarityService struct {
	store Store
}

func NewSimilarityService(st Store) *SimilarityService {
	return &SimilarityService{store: st}
}

func (s *SimilarityService) ReviewerSimilarity(ctx context.Context, reviewerA, reviewerB int64, fn similarity.Func) (float64, error) {
	pairs, err := s.store.CommonRatingsForReviewers(ctx, reviewerA, reviewerB)
	if err != nil {
		return 0, err
	}
	return fn.Similarity(pairs), nil
}

func (s *SimilarityService) MovieSimilarity(ctx context.Context, movieA, movieB int64, fn similarity.Func) (float64, error) {
	pairs, err := s.store.CommonRatingsForMovies(ctx, movieA, movieB)
	if err != nil {
		return 0, err
	}
	return fn.Similarity(pairs), nil
}

// ClosestReviewers ranks every other reviewer by similarity to reviewerID
// and keeps the best n (all when n <= 0).
func (s *SimilarityService) ClosestReviewers(ctx context.Context, reviewerID int64, n int, fn similarity.Func) ([]store.Scored, error) {
	others, err := s.store.Reviewers(ctx)
	if err != nil {
		return nil, fmt.Errorf("closest reviewers to %d: %w", reviewerID, err)
	}
	return rankAgainst(ctx, reviewerID, others, n, fn, s.ReviewerSimilarity)
}

// ClosestMovies ranks every other movie by similarity to movieID and keeps
// the best n (all when n <= 0).
func (s *SimilarityService) ClosestMovies(ctx context.Context, movieID int64, n int, fn similarity.Func) ([]store.Scored, error) {
	others, err := s.store.Movies(ctx)
	if err != nil {
		return nil, fmt.Errorf("closest movies to %d: %w", movieID, err)
	}
	return rankAgainst(ctx, movieID, others, n, fn, s.MovieSimilarity)
}

type pairSimilarity func(ctx context.Context, a, b int64, fn similarity.Func) (float64, error)

func rankAgainst(ctx context.Context, subject int64, others []int64, n int, fn similarity.Func, sim pairSimilarity) ([]store.Scored, error) {
	scores := make([]store.Scored, 0, len(others))
	for _, other := range others {
		if other == subject {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := sim(ctx, subject, other, fn)
		if err != nil {
			return nil, err
		}
		scores = append(scores, store.Scored{Score: score, ID: other})
	}
	sortScored(scores)
	return truncate(scores, n), nil
}

// sortScored orders by score, then id, both descending.
func sortScored(scores []store.Scored) {
	slices.SortStableFunc(scores, func(a, b store.Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

func truncate(scores []store.Scored, n int) []store.Scored {
	if n > 0 && len(scores) > n {
		return scores[:n]
	}
	return scores
}
