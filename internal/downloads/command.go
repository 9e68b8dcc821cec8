package downloads

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"playlistdl/internal/domain/command"
	"playlistdl/internal/domain/regex"
	"playlistdl/internal/models"
)

const maxFilenameBytes = 180

// BuildArgs builds the yt-dlp argument list for a request.
func BuildArgs(req Request) []string {
	opts := req.Options
	args := make([]string, 0, 24)

	args = append(args,
		command.Newline,
		command.NoColors,
		command.NoPlaylist,
		command.NoPart,
	)

	// Output location, extension forced below so the final path matches OutputPath
	template := strings.TrimSuffix(req.OutputPath, filepath.Ext(req.OutputPath)) + command.ExtSuffix
	args = append(args, command.Output, template)

	args = append(args, command.Format, FormatSelector(opts.Quality, opts.Format, opts.AudioOnly))

	if opts.AudioOnly {
		args = append(args, command.ExtractAudio, command.AudioFormat, opts.OutputExt())
	} else {
		args = append(args, command.MergeOutputFormat, opts.OutputExt())
	}

	if opts.Subtitles {
		args = append(args, command.WriteSubs, command.WriteAutoSubs, command.SubLangs, command.DefaultLangs)
	}

	// Add target URL [ MUST GO LAST !! ]
	args = append(args, req.URL)
	return args
}

// FormatSelector derives the yt-dlp -f selector from quality, container format and audio-only.
func FormatSelector(quality, format string, audioOnly bool) string {
	if audioOnly {
		return command.SelectBestAudio
	}

	q := strings.ToLower(strings.TrimSpace(quality))
	if q == "worst" {
		return command.SelectWorst
	}

	height := qualityHeight(q)
	generic := command.SelectBest
	filter := ""
	if height > 0 {
		filter = "[height<=" + strconv.Itoa(height) + "]"
		generic = "bv*" + filter + "+ba/b" + filter
	}

	if strings.EqualFold(format, "mp4") {
		return "bv*[ext=mp4]" + filter + "+ba[ext=m4a]/" + generic
	}
	return generic
}

// qualityHeight returns the maximum height for a quality label, or 0 for "best".
func qualityHeight(q string) int {
	switch q {
	case "", "best":
		return 0
	case "4k", "uhd":
		return 2160
	case "hd", "fhd":
		return 1080
	case "sd":
		return 480
	}
	n, err := strconv.Atoi(strings.TrimSuffix(q, "p"))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// ValidQuality reports whether quality is a label FormatSelector understands.
func ValidQuality(quality string) bool {
	q := strings.ToLower(strings.TrimSpace(quality))
	switch q {
	case "", "best", "worst", "4k", "uhd", "hd", "fhd", "sd":
		return true
	}
	return qualityHeight(q) > 0
}

// ValidFormat reports whether format is a supported output container.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "mp4", "mkv", "webm":
		return true
	}
	return false
}

// OutputPath computes the destination file for a title under the given options.
func OutputPath(title string, opts models.DownloadOptions) string {
	return filepath.Join(opts.DownloadPath, SanitizeFilename(title)+"."+opts.OutputExt())
}

// SanitizeFilename makes a title safe to use as a file name and as a yt-dlp template.
func SanitizeFilename(title string) string {
	s := regex.InvalidCharsCompile().ReplaceAllString(title, "_")
	s = strings.ReplaceAll(s, "%", "_")
	s = regex.ExtraSpacesCompile().ReplaceAllString(s, " ")
	s = strings.Trim(s, " .")

	if len(s) > maxFilenameBytes {
		cut := maxFilenameBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimRight(s[:cut], " .")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
