package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"playlistdl/internal/domain/command"
	"playlistdl/internal/models"
	"playlistdl/internal/utils/logging"
)

// CLIFetcher reads playlists through "yt-dlp --flat-playlist -J".
type CLIFetcher struct {
	Binary  string
	Timeout time.Duration
}

// NewCLIFetcher returns a fetcher for the given yt-dlp binary.
func NewCLIFetcher(binary string, timeout time.Duration) *CLIFetcher {
	if binary == "" {
		binary = command.YTDLP
	}
	return &CLIFetcher{Binary: binary, Timeout: timeout}
}

// FetchPlaylist runs yt-dlp under the fetcher timeout and parses its JSON.
func (f *CLIFetcher) FetchPlaylist(ctx context.Context, playlistURL string) (*Result, error) {
	if strings.TrimSpace(playlistURL) == "" {
		return nil, errors.New("playlist URL is required")
	}
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.Binary, command.FlatPlaylist, command.DumpJSON, playlistURL)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.D(1, "Executing command: %v", cmd.Args)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("metadata fetch for %q timed out after %v: %w", playlistURL, f.Timeout, ctx.Err())
		}
		return nil, fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("yt-dlp returned empty output")
	}
	return ParseFlatPlaylist(stdout.Bytes(), playlistURL)
}

type flatPlaylist struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	WebpageURL string      `json:"webpage_url"`
	Entries    []flatEntry `json:"entries"`
}

type flatEntry struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Duration   float64 `json:"duration"`
	Thumbnails []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

// ParseFlatPlaylist converts yt-dlp flat playlist JSON into a Result.
// Private and deleted entries are dropped.
func ParseFlatPlaylist(raw []byte, sourceURL string) (*Result, error) {
	var fp flatPlaylist
	if err := json.Unmarshal(raw, &fp); err != nil {
		return nil, fmt.Errorf("parse yt-dlp playlist JSON: %w", err)
	}

	id := strings.TrimSpace(fp.ID)
	if id == "" {
		var err error
		if id, err = PlaylistIDFromURL(sourceURL); err != nil {
			return nil, err
		}
	}
	playlistURL := strings.TrimSpace(fp.WebpageURL)
	if playlistURL == "" {
		playlistURL = sourceURL
	}
	title := strings.TrimSpace(fp.Title)
	if title == "" {
		title = id
	}

	videos := make([]models.PlaylistVideo, 0, len(fp.Entries))
	for _, e := range fp.Entries {
		vid := strings.TrimSpace(e.ID)
		if vid == "" || unavailableTitle(e.Title) {
			logging.D(2, "Skipping unavailable playlist entry %q (%q)", vid, e.Title)
			continue
		}
		v := models.PlaylistVideo{
			ID:       vid,
			Title:    strings.TrimSpace(e.Title),
			URL:      resolveVideoURL(vid, strings.TrimSpace(e.URL)),
			Duration: int(e.Duration),
		}
		if n := len(e.Thumbnails); n > 0 {
			v.Thumbnail = e.Thumbnails[n-1].URL
		}
		videos = append(videos, v)
	}

	now := time.Now()
	return &Result{
		Playlist: models.Playlist{
			ID:        id,
			Title:     title,
			URL:       playlistURL,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Videos: videos,
	}, nil
}
