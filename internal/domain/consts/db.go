package consts

// Tables
const (
	DBQueueLock = "queue_lock"
	DBPlaylists = "playlists"
	DBVideos    = "playlist_videos"
	DBSnapshots = "queue_snapshots"
)

// Queue lock
const (
	QLockID         = "id"
	QLockPID        = "holder_pid"
	QLockHost       = "holder_host"
	QLockCommand    = "holder_command"
	QLockAcquiredAt = "acquired_at"
	QLockHeartbeat  = "last_heartbeat"
)

// Playlists
const (
	QPlaylistID        = "id"
	QPlaylistTitle     = "title"
	QPlaylistURL       = "url"
	QPlaylistCreatedAt = "created_at"
	QPlaylistUpdatedAt = "updated_at"
)

// Playlist videos
const (
	QVidID         = "id"
	QVidPlaylistID = "playlist_id"
	QVidVideoID    = "video_id"
	QVidTitle      = "title"
	QVidURL        = "url"
	QVidThumbnail  = "thumbnail"
	QVidDuration   = "duration"
	QVidPosition   = "position"
	QVidCreatedAt  = "created_at"
)

// Queue snapshots
const (
	QSnapID      = "id"
	QSnapVersion = "version"
	QSnapSavedAt = "saved_at"
	QSnapData    = "data"
)
