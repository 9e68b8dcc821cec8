// Package regex compiles and caches the expressions used to read downloader output.
package regex

import (
	"regexp"
	"sync"
)

var (
	progressPct   *regexp.Regexp
	progressSpeed *regexp.Regexp
	progressETA   *regexp.Regexp
	invalidChars  *regexp.Regexp
	extraSpaces   *regexp.Regexp

	once sync.Once
)

func compile() {
	progressPct = regexp.MustCompile(`([0-9]{1,3}(?:\.[0-9]+)?)%`)
	progressSpeed = regexp.MustCompile(`\bat\s+~?\s*([0-9]+(?:\.[0-9]+)?\s*[KMGT]?i?B)/s`)
	progressETA = regexp.MustCompile(`\bETA\s+([0-9]{1,2}(?::[0-9]{2}){0,2})`)
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	extraSpaces = regexp.MustCompile(`\s+`)
}

// ProgressPercentCompile returns the regex matching "45.3%".
func ProgressPercentCompile() *regexp.Regexp {
	once.Do(compile)
	return progressPct
}

// ProgressSpeedCompile returns the regex matching "at 1.23MiB/s".
func ProgressSpeedCompile() *regexp.Regexp {
	once.Do(compile)
	return progressSpeed
}

// ProgressETACompile returns the regex matching "ETA 00:07".
func ProgressETACompile() *regexp.Regexp {
	once.Do(compile)
	return progressETA
}

// InvalidCharsCompile returns the regex for characters not allowed in filenames.
func InvalidCharsCompile() *regexp.Regexp {
	once.Do(compile)
	return invalidChars
}

// ExtraSpacesCompile returns the regex for runs of whitespace.
func ExtraSpacesCompile() *regexp.Regexp {
	once.Do(compile)
	return extraSpaces
}
