package models

import "time"

// BatchError is one permanent item failure recorded against a batch.
type BatchError struct {
	ItemID    string    `json:"item_id"`
	Title     string    `json:"title"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// BatchProgress is the aggregate derived from a batch's item states.
type BatchProgress struct {
	TotalVideos            int     `json:"total_videos"`
	CompletedVideos        int     `json:"completed_videos"`
	FailedVideos           int     `json:"failed_videos"`
	CancelledVideos        int     `json:"cancelled_videos"`
	SkippedVideos          int     `json:"skipped_videos"`
	ActiveVideos           int     `json:"active_videos"`
	OverallProgress        float64 `json:"overall_progress"`
	DownloadSpeed          float64 `json:"download_speed"`
	EstimatedTimeRemaining int     `json:"estimated_time_remaining"`
	CurrentTitle           string  `json:"current_title,omitempty"`
}

// BatchJob is a set of DownloadItems created together from one playlist.
//
// Items holds ids only; mutable item state lives in the record store.
type BatchJob struct {
	ID              string          `json:"id"`
	PlaylistID      string          `json:"playlist_id"`
	PlaylistTitle   string          `json:"playlist_title"`
	Items           []string        `json:"items"`
	Options         DownloadOptions `json:"options"`
	Status          BatchStatus     `json:"status"`
	Progress        BatchProgress   `json:"progress"`
	CancelRequested bool            `json:"cancel_requested,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	EndedAt         time.Time       `json:"ended_at,omitzero"`
	Errors          []BatchError    `json:"errors"`
}

// Clone returns a deep copy safe to hand outside the control loop.
func (b *BatchJob) Clone() *BatchJob {
	c := *b
	c.Items = append([]string(nil), b.Items...)
	c.Errors = append([]BatchError(nil), b.Errors...)
	return &c
}

// BatchSummary is the completion report for a batch.
type BatchSummary struct {
	BatchID         string        `json:"batch_id"`
	PlaylistID      string        `json:"playlist_id"`
	PlaylistTitle   string        `json:"playlist_title"`
	Status          BatchStatus   `json:"status"`
	TotalVideos     int           `json:"total_videos"`
	CompletedVideos int           `json:"completed_videos"`
	FailedVideos    int           `json:"failed_videos"`
	CancelledVideos int           `json:"cancelled_videos"`
	SkippedVideos   int           `json:"skipped_videos"`
	Errors          []BatchError  `json:"errors"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Summary builds the completion report from the batch's current state.
func (b *BatchJob) Summary() BatchSummary {
	end := b.EndedAt
	if end.IsZero() {
		end = time.Now()
	}
	return BatchSummary{
		BatchID:         b.ID,
		PlaylistID:      b.PlaylistID,
		PlaylistTitle:   b.PlaylistTitle,
		Status:          b.Status,
		TotalVideos:     b.Progress.TotalVideos,
		CompletedVideos: b.Progress.CompletedVideos,
		FailedVideos:    b.Progress.FailedVideos,
		CancelledVideos: b.Progress.CancelledVideos,
		SkippedVideos:   b.Progress.SkippedVideos,
		Errors:          append([]BatchError(nil), b.Errors...),
		Elapsed:         end.Sub(b.StartedAt),
	}
}

// BatchView pairs a batch with copies of its items.
type BatchView struct {
	Batch *BatchJob      `json:"batch"`
	Items []DownloadItem `json:"items"`
}
