package service

import (
	"context"

	"recommendr/internal/recommend"
	"recommendr/internal/similarity"
	"recommendr/internal/store"
)

// RecommendationService is everything the HTTP handlers call. *recommend.Engine
// implements it.
type RecommendationService interface {
	Ping(ctx context.Context) error

	MovieName(ctx context.Context, movieID int64) (string, bool, error)
	MovieDetails(ctx context.Context, movieID int64) (*store.Movie, error)
	SimilarMovies(ctx context.Context, movieID int64, n int) ([]store.Scored, error)

	AddRating(ctx context.Context, reviewerID, movieID int64, score int) error
	UnratedMoviesFor(ctx context.Context, reviewerID int64) ([]int64, error)
	ClosestReviewers(ctx context.Context, reviewerID int64, n int, fn similarity.Func) ([]store.Scored, error)
	RecommendFor(ctx context.Context, reviewerID int64, limit int, fn similarity.Func) ([]store.Scored, error)

	CalculateSimilarMovies(ctx context.Context, opts recommend.BatchOptions) (*recommend.BatchReport, error)
}

var _ RecommendationService = (*recommend.Engine)(nil)
