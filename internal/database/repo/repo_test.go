package repo_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"playlistdl/internal/database"
	"playlistdl/internal/database/repo"
	"playlistdl/internal/models"
)

func newTestStore(t *testing.T) *repo.Store {
	t.Helper()
	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repo.InitStores(db.DB)
}

func TestPlaylistRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := &models.Playlist{ID: "PL1", Title: "Talks", URL: "https://example.com/playlist?list=PL1"}
	if err := s.AddPlaylist(ctx, p); err != nil {
		t.Fatalf("add playlist: %v", err)
	}

	videos := []models.PlaylistVideo{
		{ID: "b", Title: "Second", URL: "https://example.com/watch?v=b", Duration: 20},
		{ID: "a", Title: "First", URL: "https://example.com/watch?v=a", Thumbnail: "thumb.jpg"},
	}
	if err := s.ReplacePlaylistVideos(ctx, "PL1", videos); err != nil {
		t.Fatalf("replace videos: %v", err)
	}

	got, err := s.GetPlaylistVideos(ctx, "PL1")
	if err != nil {
		t.Fatalf("get videos: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("playlist order not preserved: %+v", got)
	}
	if got[0].Duration != 20 || got[1].Thumbnail != "thumb.jpg" {
		t.Fatalf("fields not preserved: %+v", got)
	}

	// Replacing drops old entries
	if err := s.ReplacePlaylistVideos(ctx, "PL1", videos[:1]); err != nil {
		t.Fatalf("replace videos: %v", err)
	}
	got, err = s.GetPlaylistVideos(ctx, "PL1")
	if err != nil {
		t.Fatalf("get videos: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 video after replace, got %d", len(got))
	}

	all, err := s.ListPlaylists(ctx)
	if err != nil {
		t.Fatalf("list playlists: %v", err)
	}
	if len(all) != 1 || all[0].Title != "Talks" {
		t.Fatalf("unexpected playlists: %+v", all)
	}
}

func TestGetPlaylistNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetPlaylist(ctx, "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetPlaylistVideos(ctx, "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for videos, got %v", err)
	}
	if err := s.DeletePlaylist(ctx, "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestQueueSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	snap, err := s.ReadQueueSnapshot(ctx)
	if err != nil {
		t.Fatalf("read empty snapshot: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil snapshot on fresh database, got %+v", snap)
	}

	saved := &models.QueueSnapshot{
		Version: models.SnapshotVersion,
		SavedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Batches: []models.BatchRecord{{
			Batch: models.BatchJob{ID: "b1", PlaylistID: "PL1", Items: []string{"i1"}},
			Items: []models.DownloadItem{{ID: "i1", BatchID: "b1", Status: models.ItemDownloading}},
		}},
		Queue: []string{"i1"},
	}
	if err := s.WriteQueueSnapshot(ctx, saved); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	// Overwrite keeps one row
	saved.Queue = nil
	if err := s.WriteQueueSnapshot(ctx, saved); err != nil {
		t.Fatalf("overwrite snapshot: %v", err)
	}

	got, err := s.ReadQueueSnapshot(ctx)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if got == nil || len(got.Batches) != 1 || got.Batches[0].Items[0].Status != models.ItemDownloading {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if len(got.Queue) != 0 {
		t.Fatalf("expected overwritten queue, got %v", got.Queue)
	}
	if !got.SavedAt.Equal(saved.SavedAt) {
		t.Fatalf("saved_at mismatch: got %v want %v", got.SavedAt, saved.SavedAt)
	}

	if err := s.ClearQueueSnapshot(ctx); err != nil {
		t.Fatalf("clear snapshot: %v", err)
	}
	if got, _ := s.ReadQueueSnapshot(ctx); got != nil {
		t.Fatalf("expected snapshot cleared")
	}
}

func TestQueueLockSingleHolder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := repo.NewQueueLock(s.DB)
	if err := first.Acquire(ctx, "playlistdl serve"); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	holder, err := s.QueueHolder(ctx)
	if err != nil {
		t.Fatalf("holder: %v", err)
	}
	if holder == nil || holder.PID != first.PID || holder.Command != "playlistdl serve" {
		t.Fatalf("holder = %+v", holder)
	}

	second := &repo.QueueLock{DB: s.DB, PID: first.PID + 1}
	err = second.Acquire(ctx, "playlistdl download")
	if !errors.Is(err, repo.ErrQueueLocked) {
		t.Fatalf("expected ErrQueueLocked, got %v", err)
	}
	if err := second.Release(ctx); err == nil {
		t.Error("non-holder release should fail")
	}

	if err := first.Renew(ctx); err != nil {
		t.Fatalf("renew: %v", err)
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if holder, _ := s.QueueHolder(ctx); holder != nil {
		t.Fatalf("queue still held after release: %+v", holder)
	}
	if err := second.Acquire(ctx, "playlistdl download"); err != nil {
		t.Fatalf("expected acquire after release, got %v", err)
	}
}

func TestQueueLockStaleTakeover(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	dead := &repo.QueueLock{DB: s.DB, PID: 1}
	if err := dead.Acquire(ctx, "playlistdl queue resume"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	old := time.Now().Add(-time.Hour).UnixNano()
	if _, err := s.DB.Exec("UPDATE queue_lock SET last_heartbeat = ? WHERE id = 1", old); err != nil {
		t.Fatalf("age heartbeat: %v", err)
	}

	holder, err := s.QueueHolder(ctx)
	if err != nil || holder == nil || !holder.Stale(time.Now()) {
		t.Fatalf("holder = %+v, %v; want stale", holder, err)
	}

	next := repo.NewQueueLock(s.DB)
	if err := next.Acquire(ctx, "playlistdl serve"); err != nil {
		t.Fatalf("takeover: %v", err)
	}
	if err := dead.Renew(ctx); err == nil {
		t.Error("renew by the displaced holder should fail")
	}
}
