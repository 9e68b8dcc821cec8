// Package command holds the yt-dlp command line vocabulary.
package command

// General
const (
	YTDLP             = "yt-dlp"
	Output            = "-o"
	Format            = "-f"
	NoPlaylist        = "--no-playlist"
	Newline           = "--newline"
	NoColors          = "--no-colors"
	NoPart            = "--no-part"
	MergeOutputFormat = "--merge-output-format"
	ExtractAudio      = "-x"
	AudioFormat       = "--audio-format"
	ExtSuffix         = ".%(ext)s"
)

// Subtitles
const (
	WriteSubs     = "--write-subs"
	WriteAutoSubs = "--write-auto-subs"
	SubLangs      = "--sub-langs"
	DefaultLangs  = "en.*,en,-live_chat"
)

// Metadata
const (
	FlatPlaylist = "--flat-playlist"
	DumpJSON     = "-J"
)

// Format selectors
const (
	SelectBest      = "bv*+ba/b"
	SelectWorst     = "wv*+wa/w"
	SelectBestAudio = "ba/b"
)
