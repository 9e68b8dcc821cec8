// Package database sets up/opens the program database.
package database

import (
	"database/sql"
	"fmt"

	"playlistdl/internal/utils/logging"

	// Package sqlite3 provides interface to SQLite3 databases.
	_ "github.com/mattn/go-sqlite3"
)

const (
	dbDriver = "sqlite3"
)

// Database holds the program database handle.
type Database struct {
	DB *sql.DB
}

// InitDB opens (or creates) the database at path and initializes its tables.
func InitDB(path string) (d *Database, err error) {
	d = new(Database)
	d.DB, err = sql.Open(dbDriver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at path %q: %w", path, err)
	}

	pragmas := []struct {
		stmt, desc string
	}{
		{`PRAGMA foreign_keys = ON;`, "enable foreign keys"},
		{`PRAGMA journal_mode = WAL;`, "enable WAL mode"},
		{`PRAGMA busy_timeout = 5000;`, "set busy_timeout"},
		{`PRAGMA synchronous = NORMAL;`, "set synchronous mode"},
	}
	for _, p := range pragmas {
		if _, err := d.DB.Exec(p.stmt); err != nil {
			d.DB.Close()
			return nil, fmt.Errorf("failed to %s: %w", p.desc, err)
		}
	}

	if err := d.initTables(); err != nil {
		d.DB.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}
	return d, nil
}

// Close closes the underlying database.
func (d *Database) Close() error {
	return d.DB.Close()
}

// initTables initializes the SQL tables.
func (d *Database) initTables() (err error) {
	tx, err := d.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.E("Panic rollback failed for table creation: %v", rbErr)
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.E("Transaction rollback failed after original error %v: %v", err, rbErr)
			}
		}
	}()

	if err = initQueueLockTable(tx); err != nil {
		return err
	}
	if err = initPlaylistsTable(tx); err != nil {
		return err
	}
	if err = initVideosTable(tx); err != nil {
		return err
	}
	if err = initSnapshotsTable(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
