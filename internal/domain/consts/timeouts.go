package consts

import "time"

// Heartbeat and health checks
const (
	HeartbeatInterval     = 30 * time.Second
	StaleProcessThreshold = 2 * time.Minute
)

// Network timeouts
const (
	HTTPClientTimeout      = 10 * time.Second
	DatabaseTimeout        = 5 * time.Second
	DefaultMetadataTimeout = 60 * time.Second
)

// Intervals
const (
	ProgressRenderInterval = 500 * time.Millisecond
)
