package dto

import "recommendr/internal/store"

// RankedMovieResponse is one entry of a recommendation or neighbor list.
// Score is a predicted rating for recommendations and a similarity for
// neighbor lists.
type RankedMovieResponse struct {
	MovieID int64   `json:"movie_id"`
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
}

type MovieResponse struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

func FromStoreMovie(m *store.Movie) MovieResponse {
	genres := m.Genres
	if genres == nil {
		genres = []string{}
	}
	return MovieResponse{ID: m.ID, Name: m.Name, Genres: genres}
}
