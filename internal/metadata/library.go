package metadata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"playlistdl/internal/models"
	"playlistdl/internal/utils/logging"

	"github.com/ytget/ytdlp/v2"
)

// LibraryFetcher reads playlists in-process through the ytdlp library.
type LibraryFetcher struct {
	Timeout time.Duration
}

// NewLibraryFetcher returns a library-backed fetcher.
func NewLibraryFetcher(timeout time.Duration) *LibraryFetcher {
	return &LibraryFetcher{Timeout: timeout}
}

// FetchPlaylist fetches every playlist item. The library does not expose the
// playlist title, so the id is used until the playlist is renamed.
func (f *LibraryFetcher) FetchPlaylist(ctx context.Context, playlistURL string) (*Result, error) {
	id, err := PlaylistIDFromURL(playlistURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	items, err := ytdlp.New().GetPlaylistItemsAll(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	videos := make([]models.PlaylistVideo, 0, len(items))
	for _, it := range items {
		if it.VideoID == "" || unavailableTitle(it.Title) {
			continue
		}
		videos = append(videos, models.PlaylistVideo{
			ID:    it.VideoID,
			Title: strings.TrimSpace(it.Title),
			URL:   watchURLPrefix + it.VideoID,
		})
	}
	logging.D(1, "Library backend returned %d item(s) for playlist %q", len(videos), id)

	now := time.Now()
	return &Result{
		Playlist: models.Playlist{
			ID:        id,
			Title:     id,
			URL:       PlaylistURL(id),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Videos: videos,
	}, nil
}
