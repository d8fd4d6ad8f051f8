package dto

// CreateRatingDTO records a 1 to 5 star rating
type CreateRatingDTO struct {
	ReviewerID int64 `json:"reviewer_id" binding:"required,min=1"`
	MovieID    int64 `json:"movie_id" binding:"required,min=1"`
	Score      int   `json:"score" binding:"required,min=1,max=5"`
}
