package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"playlistdl/internal/domain/consts"
	"playlistdl/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/araddon/dateparse"
)

// WriteQueueSnapshot replaces the stored queue snapshot.
func (s *Store) WriteQueueSnapshot(ctx context.Context, snap *models.QueueSnapshot) error {
	if snap == nil {
		return errors.New("snapshot cannot be nil")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode queue snapshot: %w", err)
	}

	query := squirrel.
		Insert(consts.DBSnapshots).
		Columns(consts.QSnapID, consts.QSnapVersion, consts.QSnapSavedAt, consts.QSnapData).
		Values(1, snap.Version, snap.SavedAt.UTC().Format(time.RFC3339Nano), string(data)).
		Suffix("ON CONFLICT(id) DO UPDATE SET version = excluded.version, saved_at = excluded.saved_at, data = excluded.data").
		RunWith(s.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to write queue snapshot: %w", err)
	}
	return nil
}

// ReadQueueSnapshot returns the stored snapshot, or nil if none exists.
func (s *Store) ReadQueueSnapshot(ctx context.Context) (*models.QueueSnapshot, error) {
	query := squirrel.
		Select(consts.QSnapVersion, consts.QSnapSavedAt, consts.QSnapData).
		From(consts.DBSnapshots).
		Where(squirrel.Eq{consts.QSnapID: 1}).
		RunWith(s.DB)

	var (
		version int
		savedAt string
		data    string
	)
	if err := query.QueryRowContext(ctx).Scan(&version, &savedAt, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read queue snapshot: %w", err)
	}

	var snap models.QueueSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode queue snapshot: %w", err)
	}
	snap.Version = version

	// The column is authoritative and may have been written by older builds in another layout.
	if t, err := dateparse.ParseAny(savedAt); err == nil {
		snap.SavedAt = t
	}
	return &snap, nil
}

// ClearQueueSnapshot removes the stored snapshot.
func (s *Store) ClearQueueSnapshot(ctx context.Context) error {
	query := squirrel.
		Delete(consts.DBSnapshots).
		Where(squirrel.Eq{consts.QSnapID: 1}).
		RunWith(s.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear queue snapshot: %w", err)
	}
	return nil
}
