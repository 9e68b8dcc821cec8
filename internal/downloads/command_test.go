package downloads

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"playlistdl/internal/models"
)

func TestFormatSelector(t *testing.T) {
	tests := []struct {
		quality, format string
		audio           bool
		want            string
	}{
		{"best", "mkv", false, "bv*+ba/b"},
		{"best", "mp4", false, "bv*[ext=mp4]+ba[ext=m4a]/bv*+ba/b"},
		{"720p", "webm", false, "bv*[height<=720]+ba/b[height<=720]"},
		{"1080p", "mp4", false, "bv*[ext=mp4][height<=1080]+ba[ext=m4a]/bv*[height<=1080]+ba/b[height<=1080]"},
		{"worst", "mp4", false, "wv*+wa/w"},
		{"720p", "mp4", true, "ba/b"},
		{"nonsense", "mkv", false, "bv*+ba/b"},
	}
	for _, tt := range tests {
		if got := FormatSelector(tt.quality, tt.format, tt.audio); got != tt.want {
			t.Errorf("FormatSelector(%q, %q, %v) = %q, want %q", tt.quality, tt.format, tt.audio, got, tt.want)
		}
	}
}

func TestValidQualityAndFormat(t *testing.T) {
	for _, q := range []string{"best", "worst", "720p", "1080", "hd"} {
		if !ValidQuality(q) {
			t.Errorf("ValidQuality(%q) = false", q)
		}
	}
	for _, q := range []string{"ultra", "-5p"} {
		if ValidQuality(q) {
			t.Errorf("ValidQuality(%q) = true", q)
		}
	}
	if !ValidFormat("MKV") || ValidFormat("avi") {
		t.Error("ValidFormat mismatch")
	}
}

func TestBuildArgsVideo(t *testing.T) {
	opts := models.DefaultDownloadOptions()
	opts.Subtitles = true
	opts.DownloadPath = "/dl"

	req := Request{
		URL:        "https://www.youtube.com/watch?v=abc",
		OutputPath: OutputPath("My Video", opts),
		Options:    opts,
	}
	args := BuildArgs(req)

	if args[len(args)-1] != req.URL {
		t.Errorf("URL must be last, got %q", args[len(args)-1])
	}
	assertFlagValue(t, args, "-o", filepath.Join("/dl", "My Video.%(ext)s"))
	assertFlagValue(t, args, "--merge-output-format", "mp4")
	assertFlagValue(t, args, "--sub-langs", "en.*,en,-live_chat")
	if slices.Contains(args, "-x") {
		t.Error("video download must not extract audio")
	}
}

func TestBuildArgsAudio(t *testing.T) {
	opts := models.DefaultDownloadOptions()
	opts.AudioOnly = true
	opts.DownloadPath = "/dl"

	out := OutputPath("Song", opts)
	if !strings.HasSuffix(out, "Song.mp3") {
		t.Fatalf("audio output path = %q", out)
	}

	args := BuildArgs(Request{URL: "u", OutputPath: out, Options: opts})
	assertFlagValue(t, args, "--audio-format", "mp3")
	assertFlagValue(t, args, "-f", "ba/b")
	if slices.Contains(args, "--merge-output-format") {
		t.Error("audio download must not set a merge format")
	}
	if slices.Contains(args, "--write-subs") {
		t.Error("subtitles not requested")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		`a/b:c*d?"e"<f>|g`:  "a_b_c_d__e__f__g",
		"  spaced   out  ":  "spaced out",
		"100% real":         "100_ real",
		"...":               "untitled",
		"":                  "untitled",
		"trailing dot.":     "trailing dot",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}

	long := strings.Repeat("é", 200)
	got := SanitizeFilename(long)
	if len(got) > maxFilenameBytes {
		t.Errorf("length %d exceeds %d", len(got), maxFilenameBytes)
	}
	if !strings.HasPrefix(long, got) {
		t.Error("truncation split a rune")
	}
}

func assertFlagValue(t *testing.T, args []string, flag, want string) {
	t.Helper()
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		t.Fatalf("flag %s missing from %v", flag, args)
	}
	if args[i+1] != want {
		t.Errorf("%s = %q, want %q", flag, args[i+1], want)
	}
}
