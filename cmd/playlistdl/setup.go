package main

import (
	"context"

	"playlistdl/internal/cfg"
	"playlistdl/internal/database"
	"playlistdl/internal/database/repo"
	"playlistdl/internal/utils/logging"
)

// openRuntime opens the database and, when holder is set, claims the queue lease for it and starts the heartbeat.
func openRuntime(ctx context.Context, dbPath string, holder string) (*cfg.Runtime, error) {
	logging.D(1, "Opening database at %s", dbPath)

	db, err := database.InitDB(dbPath)
	if err != nil {
		return nil, err
	}
	store := repo.InitStores(db.DB)

	if holder == "" {
		return &cfg.Runtime{
			Store: store,
			Close: func() { closeDB(db) },
		}, nil
	}

	lock := repo.NewQueueLock(db.DB)
	if err := lock.Acquire(ctx, holder); err != nil {
		closeDB(db)
		return nil, err
	}
	logging.I("playlistdl (PID: %d) holds the download queue", lock.PID)

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	heartbeatDone := make(chan struct{})
	go func() {
		startHeartbeat(hbCtx, lock)
		close(heartbeatDone)
	}()

	return &cfg.Runtime{
		Store: store,
		Close: func() {
			stopHeartbeat()
			<-heartbeatDone
			cleanup(lock)
			closeDB(db)
		},
	}, nil
}

// closeDB closes the database, logging failures.
func closeDB(db *database.Database) {
	if err := db.Close(); err != nil {
		logging.E("Failed to close database: %v", err)
	}
}
