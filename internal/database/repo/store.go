// Package repo is used for performing database operations.
package repo

import (
	"database/sql"
	"errors"

	"playlistdl/internal/contracts"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store holds a pointer to the sql.DB and serves every store interface.
type Store struct {
	DB *sql.DB
}

var _ contracts.Store = (*Store)(nil)

// InitStores injects the database into the store methods.
func InitStores(db *sql.DB) *Store {
	return &Store{
		DB: db,
	}
}

// GetDB returns the database.
func (s *Store) GetDB() *sql.DB {
	return s.DB
}
