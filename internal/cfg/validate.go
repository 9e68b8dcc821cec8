package cfg

import (
	"fmt"

	"playlistdl/internal/domain/keys"
	"playlistdl/internal/models"
	"playlistdl/internal/validation"

	"github.com/spf13/viper"
)

// downloadOptions decodes and validates the configured download options.
func downloadOptions() (models.DownloadOptions, error) {
	var o models.DownloadOptions
	if err := viper.Unmarshal(&o); err != nil {
		return o, fmt.Errorf("invalid download options: %w", err)
	}

	if o.MaxRetries < 1 {
		return o, fmt.Errorf("%s must be at least 1, got %d", keys.MaxRetries, o.MaxRetries)
	}
	if o.MaxConcurrentDownloads < 1 {
		return o, fmt.Errorf("%s must be at least 1, got %d", keys.MaxConcurrent, o.MaxConcurrentDownloads)
	}
	if o.DownloadPath == "" {
		return o, fmt.Errorf("%s is required", keys.DownloadPath)
	}
	if _, err := validation.ValidateDirectory(o.DownloadPath, true); err != nil {
		return o, err
	}
	return validation.ValidateDownloadOptions(o)
}

// notifyURLs returns the validated webhook URLs.
func notifyURLs() ([]string, error) {
	return validation.ValidateNotifyURLs(viper.GetStringSlice(keys.NotifyURLs))
}
