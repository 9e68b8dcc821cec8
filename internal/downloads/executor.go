// Package downloads runs one external downloader process per item and reports its progress and outcome.
package downloads

import (
	"errors"

	"playlistdl/internal/models"
)

// ErrPauseUnsupported is returned by Suspend/Resume where processes cannot be stopped in place.
var ErrPauseUnsupported = errors.New("pausing downloads is not supported on this platform")

// OutcomeKind classifies how a download process ended.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
	OutcomeCancelled
)

// String implements fmt.Stringer.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Outcome is the terminal result of one execution.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// Success returns a success outcome.
func Success() Outcome { return Outcome{Kind: OutcomeSuccess} }

// Failure returns a failure outcome with the given reason.
func Failure(reason string) Outcome { return Outcome{Kind: OutcomeFailure, Reason: reason} }

// Cancelled returns a cancellation outcome.
func Cancelled() Outcome { return Outcome{Kind: OutcomeCancelled} }

// Request describes one download.
type Request struct {
	ItemID     string
	URL        string
	OutputPath string
	Options    models.DownloadOptions
}

// Progress is one parsed progress tick.
type Progress struct {
	Percent          float64
	SpeedBytesPerSec float64
	ETASeconds       int
}

// Executor spawns downloader processes.
//
// Start returns an error only when the process could not be spawned.
// onProgress is called from a reader goroutine and must not block.
type Executor interface {
	Start(req Request, onProgress func(Progress)) (Handle, error)
}

// Handle controls one running download.
//
// Wait blocks until the process has exited and been reaped. After Cancel,
// Wait resolves to a Cancelled outcome.
type Handle interface {
	Wait() Outcome
	Cancel()
	Suspend() error
	Resume() error
}
