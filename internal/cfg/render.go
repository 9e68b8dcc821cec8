package cfg

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"playlistdl/internal/domain/consts"
	"playlistdl/internal/models"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

const (
	defaultTermWidth = 80
	minBarWidth      = 10
	maxBarWidth      = 40
)

// progressRenderer draws batch progress to a terminal, or prints throttled lines otherwise.
type progressRenderer struct {
	out      io.Writer
	tty      bool
	width    int
	interval time.Duration
	last     time.Time
	drawn    bool
}

// newProgressRenderer inspects f to decide between in-place and line output.
func newProgressRenderer(f *os.File) *progressRenderer {
	r := &progressRenderer{
		out:      f,
		width:    defaultTermWidth,
		interval: consts.ProgressRenderInterval,
	}
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		r.tty = true
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			r.width = w
		}
	}
	return r
}

// Update renders p, throttled to the render interval.
func (r *progressRenderer) Update(p models.BatchProgress) {
	now := time.Now()
	if r.drawn && now.Sub(r.last) < r.interval {
		return
	}
	r.last = now

	line := formatProgress(p, r.width)
	if r.tty {
		fmt.Fprintf(r.out, "\r%s\x1b[K", line)
		r.drawn = true
		return
	}
	fmt.Fprintln(r.out, line)
	r.drawn = true
}

// Println prints a message on its own line without corrupting the progress line.
func (r *progressRenderer) Println(format string, args ...any) {
	r.Finish()
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Finish ends the in-place line, if one is drawn.
func (r *progressRenderer) Finish() {
	if r.tty && r.drawn {
		fmt.Fprintln(r.out)
	}
	r.drawn = false
}

// tag colors label on terminals.
func (r *progressRenderer) tag(color, label string) string {
	if !r.tty {
		return label
	}
	return color + label + consts.ColorReset
}

// formatProgress renders one progress line fitted to width.
func formatProgress(p models.BatchProgress, width int) string {
	finished := p.CompletedVideos + p.FailedVideos + p.CancelledVideos

	stats := fmt.Sprintf("%5.1f%% %d/%d", p.OverallProgress, finished, p.TotalVideos)
	if p.FailedVideos > 0 {
		stats += fmt.Sprintf(" (%d failed)", p.FailedVideos)
	}
	if p.DownloadSpeed > 0 {
		stats += " " + humanize.IBytes(uint64(p.DownloadSpeed)) + "/s"
	}
	if p.EstimatedTimeRemaining > 0 {
		stats += " ETA " + (time.Duration(p.EstimatedTimeRemaining) * time.Second).String()
	}

	barWidth := min(max(width-len(stats)-3, minBarWidth), maxBarWidth)
	filled := int(p.OverallProgress / 100 * float64(barWidth))
	filled = min(max(filled, 0), barWidth)
	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled) + "]"

	line := bar + " " + stats
	if p.CurrentTitle != "" {
		if room := width - len(line) - 3; room > 8 {
			line += " - " + truncate(p.CurrentTitle, room)
		}
	}
	return line
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
