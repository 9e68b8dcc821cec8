// Package keys holds the configuration keys shared by flags, viper and config files.
package keys

// Program
const (
	ConfigFile  string = "config"
	DBPath      string = "db-path"
	DebugLevel  string = "debug-level"
	LogMaxSize  string = "log-max-size"
	LogBackups  string = "log-backups"
	ListenAddr  string = "listen"
	NotifyURLs  string = "notify-url"
	YTDLPPath   string = "ytdlp-path"
	MetaBackend string = "metadata-backend"
	MetaTimeout string = "metadata-timeout"
)

// Download options
const (
	DownloadPath  string = "download-path"
	Quality       string = "quality"
	Format        string = "format"
	AudioOnly     string = "audio-only"
	Subtitles     string = "subtitles"
	SkipExisting  string = "skip-existing"
	MaxRetries    string = "max-retries"
	MaxConcurrent string = "max-concurrent"
)
