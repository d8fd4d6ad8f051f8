package dto

import "recommendr/internal/recommend"

// PrecomputeDTO overrides the configured batch options. Zero values keep the
// configured ones.
type PrecomputeDTO struct {
	N              int    `json:"n" binding:"omitempty,min=1"`
	Similarity     string `json:"similarity"`
	Workers        int    `json:"workers" binding:"omitempty,min=1"`
	TimeoutSeconds int    `json:"timeout_seconds" binding:"omitempty,min=1"`
}

type BatchReportResponse struct {
	RunID      string  `json:"run_id"`
	Movies     int     `json:"movies"`
	Saved      int     `json:"saved"`
	Failed     []int64 `json:"failed"`
	Skipped    int     `json:"skipped"`
	DurationMS int64   `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

func FromBatchReport(r *recommend.BatchReport, err error) BatchReportResponse {
	resp := BatchReportResponse{Failed: []int64{}}
	if r != nil {
		resp.RunID = r.RunID
		resp.Movies = r.Movies
		resp.Saved = r.Saved
		resp.Failed = r.FailedIDs()
		resp.Skipped = r.Skipped
		resp.DurationMS = r.Duration.Milliseconds()
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
