package downloads

import (
	"strconv"
	"strings"

	"playlistdl/internal/domain/regex"

	"github.com/dustin/go-humanize"
)

// ParseProgressLine extracts percentage, speed and ETA from one downloader output line.
//
// ok is false unless a percentage was found.
func ParseProgressLine(line string) (p Progress, ok bool) {
	m := regex.ProgressPercentCompile().FindStringSubmatch(line)
	if len(m) != 2 {
		return p, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return p, false
	}
	p.Percent = min(max(pct, 0), 100)

	if m := regex.ProgressSpeedCompile().FindStringSubmatch(line); len(m) == 2 {
		if b, err := humanize.ParseBytes(strings.ReplaceAll(m[1], " ", "")); err == nil {
			p.SpeedBytesPerSec = float64(b)
		}
	}

	if m := regex.ProgressETACompile().FindStringSubmatch(line); len(m) == 2 {
		p.ETASeconds = parseClock(m[1])
	}
	return p, true
}

// parseClock converts "ss", "mm:ss" or "hh:mm:ss" to seconds.
func parseClock(s string) int {
	total := 0
	for part := range strings.SplitSeq(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}
