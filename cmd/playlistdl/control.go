package main

import (
	"context"
	"time"

	"playlistdl/internal/database/repo"
	"playlistdl/internal/domain/consts"
	"playlistdl/internal/utils/logging"
)

// startHeartbeat renews the queue lease until ctx ends.
//
// A stale lease lets the next run take over after crashes and power cuts.
func startHeartbeat(ctx context.Context, lock *repo.QueueLock) {
	ticker := time.NewTicker(consts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Renew(ctx); err != nil {
				logging.E("Failed to renew queue lease for process ID %d: %v", lock.PID, err)
			}
		}
	}
}

// cleanup hands the queue back.
func cleanup(lock *repo.QueueLock) {
	ctx, cancel := context.WithTimeout(context.Background(), consts.DatabaseTimeout)
	defer cancel()
	if err := lock.Release(ctx); err != nil {
		logging.E("Failed to release the download queue, next run must wait until the lease goes stale (%v): %v", consts.StaleProcessThreshold, err)
	}
}
