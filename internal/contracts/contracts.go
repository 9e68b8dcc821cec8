// Package contracts defines interfaces that decouple the coordinator from storage and process implementations.
package contracts

import (
	"context"

	"playlistdl/internal/events"
	"playlistdl/internal/models"
)

// MetadataProvider returns structured playlist metadata.
//
// GetPlaylist must fail with an error wrapping repo.ErrNotFound when the id is unknown.
type MetadataProvider interface {
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)
	GetPlaylistVideos(ctx context.Context, playlistID string) ([]models.PlaylistVideo, error)
}

// SnapshotStore persists queue snapshots.
//
// ReadQueueSnapshot returns nil, nil when nothing has been saved yet.
type SnapshotStore interface {
	ReadQueueSnapshot(ctx context.Context) (*models.QueueSnapshot, error)
	WriteQueueSnapshot(ctx context.Context, snap *models.QueueSnapshot) error
}

// PlaylistStore is the catalog used by the CLI and HTTP layers.
type PlaylistStore interface {
	MetadataProvider
	AddPlaylist(ctx context.Context, p *models.Playlist) error
	ReplacePlaylistVideos(ctx context.Context, playlistID string, videos []models.PlaylistVideo) error
	ListPlaylists(ctx context.Context) ([]*models.Playlist, error)
	DeletePlaylist(ctx context.Context, playlistID string) error
}

// Store allows access to the main store repo methods.
type Store interface {
	PlaylistStore
	SnapshotStore
}

// Coordinator is the download control surface used by the HTTP and CLI layers.
type Coordinator interface {
	StartBatch(ctx context.Context, playlistID string, opts models.DownloadOptions) (*models.BatchJob, error)
	AddDownload(ctx context.Context, video models.PlaylistVideo) (*models.DownloadItem, error)

	CancelItem(ctx context.Context, itemID string) error
	PauseItem(ctx context.Context, itemID string) error
	ResumeItem(ctx context.Context, itemID string) error
	CancelBatch(ctx context.Context, batchID string) error
	PauseBatch(ctx context.Context, batchID string) error
	ResumeBatch(ctx context.Context, batchID string) error
	RetryFailed(ctx context.Context, batchID string) (int, error)

	Batch(ctx context.Context, batchID string) (*models.BatchView, error)
	Batches(ctx context.Context) ([]*models.BatchJob, error)
	Item(ctx context.Context, itemID string) (*models.DownloadItem, error)
	Standalone(ctx context.Context) ([]models.DownloadItem, error)
	ClearFinished(ctx context.Context) (int, error)

	Defaults() models.DownloadOptions
	Events() *events.Emitter
}
