package validation

import (
	"strings"

	"playlistdl/internal/utils/logging"
)

// DeduplicateSliceEntries removes blank and duplicate entries, keeping first occurrences in order.
func DeduplicateSliceEntries(input []string) []string {
	if len(input) == 0 {
		return input
	}

	deduped := make([]string, 0, len(input))
	seen := make(map[string]bool, len(input))

	for _, in := range input {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		if seen[in] {
			logging.W("Removing duplicate of entry %q", in)
			continue
		}
		seen[in] = true
		deduped = append(deduped, in)
	}
	return deduped
}
