package coordinator

import "errors"

var (
	ErrEmptyPlaylist     = errors.New("playlist has no videos")
	ErrUnknownItem       = errors.New("unknown download item")
	ErrUnknownBatch      = errors.New("unknown batch")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrStopped           = errors.New("coordinator is not running")
	ErrAlreadyRunning    = errors.New("coordinator already running")
)
