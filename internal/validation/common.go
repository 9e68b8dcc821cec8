// Package validation handles validation of user flag and request input.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"playlistdl/internal/domain/consts"
	"playlistdl/internal/downloads"
	"playlistdl/internal/models"
	"playlistdl/internal/utils/logging"
)

// ValidateDirectory validates that the directory exists, else creates it if desired.
func ValidateDirectory(dir string, createIfNotFound bool) (os.FileInfo, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("directory path is empty")
	}
	logging.D(3, "Statting directory %q...", dir)

	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("path %q is a file, not a directory", dir)
		}
		return info, nil

	case errors.Is(err, os.ErrNotExist) && createIfNotFound:
		logging.D(1, "Directory %q does not exist, creating it...", dir)
		if err := os.MkdirAll(dir, consts.PermsDownloadDir); err != nil {
			return nil, fmt.Errorf("directory %q does not exist and creation failed: %w", dir, err)
		}
		return os.Stat(dir)

	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("directory %q does not exist", dir)
	}
	return nil, fmt.Errorf("failed to stat directory %q: %w", dir, err)
}

// ValidateDownloadOptions fills defaults and rejects values the downloader cannot honor.
func ValidateDownloadOptions(o models.DownloadOptions) (models.DownloadOptions, error) {
	if o.MaxRetries < 0 {
		return o, fmt.Errorf("max retries must not be negative, got %d", o.MaxRetries)
	}
	if o.MaxConcurrentDownloads < 0 {
		return o, fmt.Errorf("max concurrent downloads must not be negative, got %d", o.MaxConcurrentDownloads)
	}
	o = o.WithDefaults()
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	o.Quality = strings.ToLower(strings.TrimSpace(o.Quality))

	if !downloads.ValidFormat(o.Format) {
		return o, fmt.Errorf("unsupported format %q (expected mp4, mkv or webm)", o.Format)
	}
	if !downloads.ValidQuality(o.Quality) {
		return o, fmt.Errorf("unsupported quality %q (expected best, worst or a height such as 720p)", o.Quality)
	}
	return o, nil
}

// ValidateNotifyURLs checks notification URLs and drops duplicates.
func ValidateNotifyURLs(urls []string) ([]string, error) {
	urls = DeduplicateSliceEntries(urls)
	if len(urls) == 0 {
		return urls, nil
	}
	logging.D(1, "Validating %d notification URLs...", len(urls))

	for i, u := range urls {
		if strings.TrimSpace(u) == "" {
			return nil, fmt.Errorf("notification at position %d has empty notify URL", i)
		}
		parsed, err := url.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("notification at position %d has invalid notify URL %q: %w", i, u, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return nil, fmt.Errorf("notify URL %q must use http or https", u)
		}
		if parsed.Host == "" {
			return nil, fmt.Errorf("notify URL %q has no host", u)
		}
	}
	return urls, nil
}

// ValidateLoggingLevel clamps a debug level into 0 - 5.
func ValidateLoggingLevel(l int) int {
	return min(max(l, 0), 5)
}
