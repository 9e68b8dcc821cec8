package downloads

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateReasonKeepsRunesWhole(t *testing.T) {
	short := "exit code 1: boom"
	if got := truncateReason(short); got != short {
		t.Errorf("short reason changed to %q", got)
	}

	// One ASCII byte shifts every 3-byte rune across the cut
	long := "x" + strings.Repeat("動", maxReasonLen)
	got := truncateReason(long)
	if len(got) > maxReasonLen {
		t.Errorf("len = %d, want at most %d", len(got), maxReasonLen)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated reason is not valid UTF-8: %q", got[len(got)-4:])
	}
	if !strings.HasPrefix(long, got) {
		t.Error("truncated reason is not a prefix of the original")
	}
}
