package models

import "time"

// SnapshotVersion is bumped whenever QueueSnapshot changes shape.
const SnapshotVersion = 1

// BatchRecord is a batch with its nested item states.
type BatchRecord struct {
	Batch BatchJob       `json:"batch"`
	Items []DownloadItem `json:"items"`
}

// QueueSnapshot is the durable form of the coordinator state.
type QueueSnapshot struct {
	Version    int            `json:"version"`
	SavedAt    time.Time      `json:"saved_at"`
	Sequence   int64          `json:"sequence"`
	Batches    []BatchRecord  `json:"batches"`
	Standalone []DownloadItem `json:"standalone"`
	Queue      []string       `json:"queue"`
}
