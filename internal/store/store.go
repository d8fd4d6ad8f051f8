// Package store is the key-value index of movies, genres, reviewers, ratings
// and precomputed movie similarities.
//
// Reviewers have no record of their own: a reviewer exists once they have
// rated a movie. Lookups for an unknown reviewer are not errors, they behave
// as if the reviewer had rated nothing.
package store

import (
	"context"
	"errors"

	"recommendr/internal/similarity"
)

var ErrInvalidGenreName = errors.New("genre name is empty")

// Scored is an id ranked by a score: a neighbor with its similarity, or a
// movie with its predicted rating.
type Scored struct {
	Score float64 `json:"score"`
	ID    int64   `json:"id"`
}

// Movie is a catalog entry with its genre names resolved.
type Movie struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// RatingStore is the full store contract. Set-valued results are returned
// sorted ascending. Absence is reported through empty results or ok == false,
// errors are reserved for backing store failures.
type RatingStore interface {
	AddOrGetGenre(ctx context.Context, name string) (int64, error)
	GenreIDByName(ctx context.Context, name string) (int64, bool, error)
	GenreName(ctx context.Context, genreID int64) (string, bool, error)
	GenresForMovie(ctx context.Context, movieID int64) ([]int64, error)
	MoviesForGenre(ctx context.Context, genreID int64) ([]int64, error)

	AddMovie(ctx context.Context, movieID int64, name string, genreIDs ...int64) error
	Movies(ctx context.Context) ([]int64, error)
	MovieName(ctx context.Context, movieID int64) (string, bool, error)
	MovieDetails(ctx context.Context, movieID int64) (*Movie, error)

	AddRating(ctx context.Context, reviewerID, movieID int64, score int) error
	Reviewers(ctx context.Context) ([]int64, error)
	UnratedMoviesFor(ctx context.Context, reviewerID int64) ([]int64, error)
	ReviewersForMovie(ctx context.Context, movieID int64) ([]int64, error)
	ReviewerRatingForMovie(ctx context.Context, reviewerID, movieID int64) (float64, bool, error)
	CommonRatingsForReviewers(ctx context.Context, reviewerA, reviewerB int64) ([]similarity.Pair, error)
	CommonRatingsForMovies(ctx context.Context, movieA, movieB int64) ([]similarity.Pair, error)

	SaveSimilarityScores(ctx context.Context, movieID int64, scores []Scored) error
	SimilarMovies(ctx context.Context, movieID int64, n int) ([]Scored, error)

	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
