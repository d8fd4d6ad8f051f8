package dto

import "recommendr/internal/store"

// UnratedResponse lists the movies a reviewer has not rated yet
type UnratedResponse struct {
	ReviewerID int64   `json:"reviewer_id"`
	MovieIDs   []int64 `json:"movie_ids"`
	Count      int     `json:"count"`
}

type RecommendationsResponse struct {
	ReviewerID int64                 `json:"reviewer_id"`
	Similarity string                `json:"similarity"`
	Items      []RankedMovieResponse `json:"items"`
}

type SimilarReviewerResponse struct {
	ReviewerID int64   `json:"reviewer_id"`
	Score      float64 `json:"score"`
}

func FromScoredToSimilarReviewers(scored []store.Scored) []SimilarReviewerResponse {
	resp := make([]SimilarReviewerResponse, 0, len(scored))
	for _, s := range scored {
		resp = append(resp, SimilarReviewerResponse{ReviewerID: s.ID, Score: s.Score})
	}
	return resp
}
