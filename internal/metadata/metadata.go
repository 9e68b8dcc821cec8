// Package metadata resolves playlist URLs into playlist and video metadata.
package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"playlistdl/internal/domain/consts"
	"playlistdl/internal/models"
)

// Backend names.
const (
	BackendCLI     = "ytdlp-cli"
	BackendLibrary = "library"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// Result is a fetched playlist with its videos in playlist order.
type Result struct {
	Playlist models.Playlist
	Videos   []models.PlaylistVideo
}

// Fetcher fetches playlist metadata.
type Fetcher interface {
	FetchPlaylist(ctx context.Context, playlistURL string) (*Result, error)
}

// New returns the fetcher for a backend name.
func New(backend, binary string, timeout time.Duration) (Fetcher, error) {
	if timeout <= 0 {
		timeout = consts.DefaultMetadataTimeout
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendCLI:
		return NewCLIFetcher(binary, timeout), nil
	case BackendLibrary:
		return NewLibraryFetcher(timeout), nil
	}
	return nil, fmt.Errorf("unknown metadata backend %q (expected %s or %s)", backend, BackendCLI, BackendLibrary)
}

// PlaylistIDFromURL extracts the "list" parameter of a playlist URL.
// Input that is not a URL is taken to be the id itself.
func PlaylistIDFromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty playlist reference")
	}
	if !strings.Contains(raw, "://") && !strings.Contains(raw, "/") && !strings.Contains(raw, "?") {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid playlist URL %q: %w", raw, err)
	}
	if id := u.Query().Get("list"); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("could not extract playlist ID from URL %q", raw)
}

// PlaylistURL returns the canonical URL for a playlist id.
func PlaylistURL(id string) string {
	return "https://www.youtube.com/playlist?list=" + url.QueryEscape(id)
}

// resolveVideoURL prefers the entry URL when it is absolute.
func resolveVideoURL(id, entryURL string) string {
	if strings.HasPrefix(entryURL, "http://") || strings.HasPrefix(entryURL, "https://") {
		return entryURL
	}
	return watchURLPrefix + id
}

// unavailableTitle reports placeholder titles of removed videos.
func unavailableTitle(title string) bool {
	switch strings.TrimSpace(strings.ToLower(title)) {
	case "[private video]", "[deleted video]", "[unavailable video]":
		return true
	}
	return false
}
