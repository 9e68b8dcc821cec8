// Package models holds the data types shared across packages.
package models

import "time"

// DownloadItem is one video's download unit.
type DownloadItem struct {
	ID            string `json:"id"`
	BatchID       string `json:"batch_id,omitempty"`
	SourceURL     string `json:"source_url"`
	Title         string `json:"title"`
	Thumbnail     string `json:"thumbnail,omitempty"`
	Duration      int    `json:"duration"`
	OutputPath    string `json:"output_path"`
	QueuePosition int64  `json:"queue_position"`

	Status           ItemStatus `json:"status"`
	ProgressPercent  float64    `json:"progress_percent"`
	SpeedBytesPerSec float64    `json:"speed_bytes_per_sec"`
	ETASeconds       int        `json:"eta_seconds"`
	RetryCount       int        `json:"retry_count"`
	Error            string     `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClearTelemetry zeroes the fields only meaningful while downloading.
func (i *DownloadItem) ClearTelemetry() {
	i.SpeedBytesPerSec = 0
	i.ETASeconds = 0
}

// DownloadOptions is the resolved configuration used to expand and run downloads.
type DownloadOptions struct {
	Quality                string `json:"quality" mapstructure:"quality"`
	Format                 string `json:"format" mapstructure:"format"`
	AudioOnly              bool   `json:"audio_only" mapstructure:"audio-only"`
	Subtitles              bool   `json:"subtitles" mapstructure:"subtitles"`
	SkipExisting           bool   `json:"skip_existing" mapstructure:"skip-existing"`
	MaxRetries             int    `json:"max_retries" mapstructure:"max-retries"`
	MaxConcurrentDownloads int    `json:"max_concurrent_downloads" mapstructure:"max-concurrent"`
	DownloadPath           string `json:"download_path" mapstructure:"download-path"`
}

// Option defaults.
const (
	DefaultQuality       = "best"
	DefaultFormat        = "mp4"
	DefaultAudioFormat   = "mp3"
	DefaultMaxRetries    = 3
	DefaultMaxConcurrent = 3
)

// DefaultDownloadOptions returns the documented defaults.
func DefaultDownloadOptions() DownloadOptions {
	return DownloadOptions{
		Quality:                DefaultQuality,
		Format:                 DefaultFormat,
		SkipExisting:           true,
		MaxRetries:             DefaultMaxRetries,
		MaxConcurrentDownloads: DefaultMaxConcurrent,
	}
}

// WithDefaults fills zero values from the documented defaults.
func (o DownloadOptions) WithDefaults() DownloadOptions {
	if o.Quality == "" {
		o.Quality = DefaultQuality
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.MaxConcurrentDownloads <= 0 {
		o.MaxConcurrentDownloads = DefaultMaxConcurrent
	}
	return o
}

// OutputExt returns the file extension the downloader is told to produce.
func (o DownloadOptions) OutputExt() string {
	if o.AudioOnly {
		return DefaultAudioFormat
	}
	if o.Format == "" {
		return DefaultFormat
	}
	return o.Format
}
