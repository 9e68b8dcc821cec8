package database

import (
	"database/sql"
	"fmt"
)

// initQueueLockTable initializes the single-row queue lease table.
//
// Times are unix nanoseconds so staleness can be compared in SQL.
func initQueueLockTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS queue_lock (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        holder_pid INTEGER NOT NULL DEFAULT 0,
        holder_host TEXT,
        holder_command TEXT,
        acquired_at INTEGER NOT NULL DEFAULT 0,
        last_heartbeat INTEGER NOT NULL DEFAULT 0
    );
    INSERT OR IGNORE INTO queue_lock (id, holder_pid) VALUES (1, 0);
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create queue lock table: %w", err)
	}
	return nil
}

// initPlaylistsTable initializes playlist tables.
func initPlaylistsTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS playlists (
        id TEXT PRIMARY KEY,
        title TEXT NOT NULL,
        url TEXT,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_playlists_url ON playlists(url);
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create playlists table: %w", err)
	}
	return nil
}

// initVideosTable initializes the playlist video table.
func initVideosTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS playlist_videos (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
        video_id TEXT NOT NULL,
        title TEXT,
        url TEXT NOT NULL,
        thumbnail TEXT,
        duration INTEGER DEFAULT 0,
        position INTEGER NOT NULL,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        UNIQUE (playlist_id, video_id)
    );
    CREATE INDEX IF NOT EXISTS idx_playlist_videos_playlist ON playlist_videos(playlist_id, position);
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create playlist videos table: %w", err)
	}
	return nil
}

// initSnapshotsTable initializes the single-row queue snapshot table.
func initSnapshotsTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS queue_snapshots (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        version INTEGER NOT NULL,
        saved_at TEXT NOT NULL,
        data JSON NOT NULL
    );
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create queue snapshots table: %w", err)
	}
	return nil
}
