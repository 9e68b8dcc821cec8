package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"playlistdl/internal/domain/consts"
	"playlistdl/internal/models"
	"playlistdl/internal/utils/logging"

	"github.com/Masterminds/squirrel"
)

// AddPlaylist inserts the playlist or updates its title and URL.
func (s *Store) AddPlaylist(ctx context.Context, p *models.Playlist) error {
	if p == nil || p.ID == "" {
		return errors.New("playlist must have an ID")
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := squirrel.
		Insert(consts.DBPlaylists).
		Columns(
			consts.QPlaylistID,
			consts.QPlaylistTitle,
			consts.QPlaylistURL,
			consts.QPlaylistCreatedAt,
			consts.QPlaylistUpdatedAt,
		).
		Values(p.ID, p.Title, p.URL, p.CreatedAt, p.UpdatedAt).
		Suffix("ON CONFLICT(id) DO UPDATE SET title = excluded.title, url = excluded.url, updated_at = excluded.updated_at").
		RunWith(s.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to save playlist %q: %w", p.ID, err)
	}
	return nil
}

// ReplacePlaylistVideos swaps the stored video list of a playlist for videos, in order.
func (s *Store) ReplacePlaylistVideos(ctx context.Context, playlistID string, videos []models.PlaylistVideo) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.E("Panic rollback failed for playlist %q: %v", playlistID, rbErr)
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.E("Error rolling back videos for playlist %q (original error: %v): %v", playlistID, err, rbErr)
			}
		}
	}()

	del := squirrel.
		Delete(consts.DBVideos).
		Where(squirrel.Eq{consts.QVidPlaylistID: playlistID}).
		RunWith(tx)
	if _, err = del.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear videos for playlist %q: %w", playlistID, err)
	}

	now := time.Now()
	for i, v := range videos {
		ins := squirrel.
			Insert(consts.DBVideos).
			Columns(
				consts.QVidPlaylistID,
				consts.QVidVideoID,
				consts.QVidTitle,
				consts.QVidURL,
				consts.QVidThumbnail,
				consts.QVidDuration,
				consts.QVidPosition,
				consts.QVidCreatedAt,
			).
			Values(playlistID, v.ID, v.Title, v.URL, v.Thumbnail, v.Duration, i, now).
			Suffix("ON CONFLICT(playlist_id, video_id) DO NOTHING").
			RunWith(tx)
		if _, err = ins.ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to insert video %q into playlist %q: %w", v.ID, playlistID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	logging.D(1, "Stored %d videos for playlist %q", len(videos), playlistID)
	return nil
}

// GetPlaylist returns the playlist with the given ID, or ErrNotFound.
func (s *Store) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	query := squirrel.
		Select(
			consts.QPlaylistID,
			consts.QPlaylistTitle,
			consts.QPlaylistURL,
			consts.QPlaylistCreatedAt,
			consts.QPlaylistUpdatedAt,
		).
		From(consts.DBPlaylists).
		Where(squirrel.Eq{consts.QPlaylistID: playlistID}).
		RunWith(s.DB)

	var (
		p   models.Playlist
		url sql.NullString
	)
	if err := query.QueryRowContext(ctx).Scan(&p.ID, &p.Title, &url, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("playlist %q: %w", playlistID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query playlist %q: %w", playlistID, err)
	}
	if url.Valid {
		p.URL = url.String
	}
	return &p, nil
}

// GetPlaylistVideos returns the videos of a playlist in playlist order.
//
// An unknown playlist yields ErrNotFound, an empty one yields an empty slice.
func (s *Store) GetPlaylistVideos(ctx context.Context, playlistID string) ([]models.PlaylistVideo, error) {
	if _, err := s.GetPlaylist(ctx, playlistID); err != nil {
		return nil, err
	}

	query := squirrel.
		Select(
			consts.QVidVideoID,
			consts.QVidTitle,
			consts.QVidURL,
			consts.QVidThumbnail,
			consts.QVidDuration,
		).
		From(consts.DBVideos).
		Where(squirrel.Eq{consts.QVidPlaylistID: playlistID}).
		OrderBy(consts.QVidPosition + " ASC").
		RunWith(s.DB)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos for playlist %q: %w", playlistID, err)
	}
	defer rows.Close()

	videos := make([]models.PlaylistVideo, 0)
	for rows.Next() {
		var (
			v         models.PlaylistVideo
			title     sql.NullString
			thumbnail sql.NullString
			duration  sql.NullInt64
		)
		if err := rows.Scan(&v.ID, &title, &v.URL, &thumbnail, &duration); err != nil {
			return nil, fmt.Errorf("failed to scan video row: %w", err)
		}
		if title.Valid {
			v.Title = title.String
		}
		if thumbnail.Valid {
			v.Thumbnail = thumbnail.String
		}
		if duration.Valid {
			v.Duration = int(duration.Int64)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return videos, nil
}

// ListPlaylists returns all stored playlists, most recently updated first.
func (s *Store) ListPlaylists(ctx context.Context) ([]*models.Playlist, error) {
	query := squirrel.
		Select(
			consts.QPlaylistID,
			consts.QPlaylistTitle,
			consts.QPlaylistURL,
			consts.QPlaylistCreatedAt,
			consts.QPlaylistUpdatedAt,
		).
		From(consts.DBPlaylists).
		OrderBy(consts.QPlaylistUpdatedAt + " DESC").
		RunWith(s.DB)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		var (
			p   models.Playlist
			url sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &url, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		if url.Valid {
			p.URL = url.String
		}
		playlists = append(playlists, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return playlists, nil
}

// DeletePlaylist removes a playlist and its videos.
func (s *Store) DeletePlaylist(ctx context.Context, playlistID string) error {
	query := squirrel.
		Delete(consts.DBPlaylists).
		Where(squirrel.Eq{consts.QPlaylistID: playlistID}).
		RunWith(s.DB)

	res, err := query.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete playlist %q: %w", playlistID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("playlist %q: %w", playlistID, ErrNotFound)
	}
	return nil
}
