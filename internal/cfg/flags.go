package cfg

import (
	"playlistdl/internal/domain/consts"
	"playlistdl/internal/domain/keys"
	"playlistdl/internal/domain/paths"
	"playlistdl/internal/metadata"
	"playlistdl/internal/models"
	"playlistdl/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initProgramFlags initializes user flag settings related to the core program. E.g. logging level.
func initProgramFlags(rootCmd *cobra.Command) error {
	pf := rootCmd.PersistentFlags()

	// Config file
	pf.String(keys.ConfigFile, "", "Config file (any format viper reads: yaml, toml, json...)")

	// Database
	pf.String(keys.DBPath, paths.DBFilePath, "Database file path")

	// Logging
	pf.Int(keys.DebugLevel, 0, "Debugging level (0 - 5)")
	pf.Int(keys.LogMaxSize, 1, "Maximum log file size in MB before rotation")
	pf.Int(keys.LogBackups, 3, "Rotated log files to keep")

	// External programs
	pf.String(keys.YTDLPPath, "yt-dlp", "yt-dlp binary")
	pf.String(keys.MetaBackend, metadata.BackendCLI, "Metadata backend ("+metadata.BackendCLI+" or "+metadata.BackendLibrary+")")
	pf.Duration(keys.MetaTimeout, consts.DefaultMetadataTimeout, "Timeout for playlist metadata requests")

	// Web
	pf.String(keys.ListenAddr, server.DefaultAddr, "HTTP listen address for serve")
	pf.StringSlice(keys.NotifyURLs, nil, "Webhook URLs notified on batch completion and failures")

	return bindAll(rootCmd,
		keys.ConfigFile, keys.DBPath,
		keys.DebugLevel, keys.LogMaxSize, keys.LogBackups,
		keys.YTDLPPath, keys.MetaBackend, keys.MetaTimeout,
		keys.ListenAddr, keys.NotifyURLs,
	)
}

// initDownloadFlags initializes the default download options.
func initDownloadFlags(rootCmd *cobra.Command) error {
	pf := rootCmd.PersistentFlags()

	pf.String(keys.DownloadPath, paths.DefaultDownloadPath, "Directory downloads are written to")
	pf.String(keys.Quality, models.DefaultQuality, "Quality (best, worst, or a height such as 720p)")
	pf.String(keys.Format, models.DefaultFormat, "Container format (mp4, mkv, webm)")
	pf.Bool(keys.AudioOnly, false, "Extract audio only")
	pf.Bool(keys.Subtitles, false, "Download and embed subtitles")
	pf.Bool(keys.SkipExisting, true, "Skip videos whose output file already exists")
	pf.IntP(keys.MaxRetries, "r", models.DefaultMaxRetries, "Attempts per video before it is marked failed")
	pf.IntP(keys.MaxConcurrent, "l", models.DefaultMaxConcurrent, "Maximum concurrent downloads")

	return bindAll(rootCmd,
		keys.DownloadPath, keys.Quality, keys.Format,
		keys.AudioOnly, keys.Subtitles, keys.SkipExisting,
		keys.MaxRetries, keys.MaxConcurrent,
	)
}

// bindAll binds persistent flags to their viper keys.
func bindAll(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if err := viper.BindPFlag(name, cmd.PersistentFlags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}
