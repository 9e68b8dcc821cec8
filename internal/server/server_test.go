package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"playlistdl/internal/coordinator"
	"playlistdl/internal/database/repo"
	"playlistdl/internal/downloads"
	"playlistdl/internal/events"
	"playlistdl/internal/models"
)

// stubCoordinator records calls and serves canned state.
type stubCoordinator struct {
	emitter   *events.Emitter
	batches   map[string]*models.BatchJob
	items     map[string]*models.DownloadItem
	started   []models.DownloadOptions
	cancelled []string
	pauseErr  error
}

func newStubCoordinator() *stubCoordinator {
	return &stubCoordinator{
		emitter: events.NewEmitter(),
		batches: map[string]*models.BatchJob{"b1": {ID: "b1", PlaylistID: "pl", Status: models.BatchDownloading}},
		items:   map[string]*models.DownloadItem{"i1": {ID: "i1", BatchID: "b1", Status: models.ItemDownloading}},
	}
}

func (s *stubCoordinator) StartBatch(_ context.Context, playlistID string, opts models.DownloadOptions) (*models.BatchJob, error) {
	switch playlistID {
	case "missing":
		return nil, fmt.Errorf("could not load playlist: %w", repo.ErrNotFound)
	case "empty":
		return nil, fmt.Errorf("playlist: %w", coordinator.ErrEmptyPlaylist)
	}
	s.started = append(s.started, opts)
	return &models.BatchJob{ID: "b2", PlaylistID: playlistID, Options: opts, Status: models.BatchQueued}, nil
}

func (s *stubCoordinator) AddDownload(_ context.Context, v models.PlaylistVideo) (*models.DownloadItem, error) {
	return &models.DownloadItem{ID: "i9", SourceURL: v.URL, Title: v.Title, Status: models.ItemQueued}, nil
}

func (s *stubCoordinator) CancelItem(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return coordinator.ErrUnknownItem
	}
	s.cancelled = append(s.cancelled, id)
	return nil
}

func (s *stubCoordinator) PauseItem(context.Context, string) error  { return s.pauseErr }
func (s *stubCoordinator) ResumeItem(context.Context, string) error { return nil }

func (s *stubCoordinator) CancelBatch(_ context.Context, id string) error {
	b, ok := s.batches[id]
	if !ok {
		return coordinator.ErrUnknownBatch
	}
	if b.Status.IsTerminal() {
		return coordinator.ErrInvalidTransition
	}
	b.Status = models.BatchCancelled
	return nil
}

func (s *stubCoordinator) PauseBatch(context.Context, string) error  { return nil }
func (s *stubCoordinator) ResumeBatch(context.Context, string) error { return nil }

func (s *stubCoordinator) RetryFailed(_ context.Context, id string) (int, error) {
	if _, ok := s.batches[id]; !ok {
		return 0, coordinator.ErrUnknownBatch
	}
	return 2, nil
}

func (s *stubCoordinator) Batch(_ context.Context, id string) (*models.BatchView, error) {
	b, ok := s.batches[id]
	if !ok {
		return nil, coordinator.ErrUnknownBatch
	}
	return &models.BatchView{Batch: b}, nil
}

func (s *stubCoordinator) Batches(context.Context) ([]*models.BatchJob, error) {
	return []*models.BatchJob{s.batches["b1"]}, nil
}

func (s *stubCoordinator) Item(_ context.Context, id string) (*models.DownloadItem, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, coordinator.ErrUnknownItem
	}
	return it, nil
}

func (s *stubCoordinator) Standalone(context.Context) ([]models.DownloadItem, error) {
	return []models.DownloadItem{}, nil
}

func (s *stubCoordinator) ClearFinished(context.Context) (int, error) {
	n := 0
	for id, b := range s.batches {
		if b.Status.IsTerminal() {
			delete(s.batches, id)
			n++
		}
	}
	return n, nil
}

func (s *stubCoordinator) Defaults() models.DownloadOptions { return models.DefaultDownloadOptions() }
func (s *stubCoordinator) Events() *events.Emitter         { return s.emitter }

// stubPlaylists is an in-memory catalog.
type stubPlaylists struct{}

func (stubPlaylists) GetPlaylist(_ context.Context, id string) (*models.Playlist, error) {
	if id != "pl" {
		return nil, repo.ErrNotFound
	}
	return &models.Playlist{ID: "pl", Title: "Mix"}, nil
}

func (stubPlaylists) GetPlaylistVideos(_ context.Context, id string) ([]models.PlaylistVideo, error) {
	return []models.PlaylistVideo{{ID: "v1", Title: "One", URL: "u1"}}, nil
}

func (stubPlaylists) AddPlaylist(context.Context, *models.Playlist) error { return nil }
func (stubPlaylists) ReplacePlaylistVideos(context.Context, string, []models.PlaylistVideo) error {
	return nil
}
func (stubPlaylists) DeletePlaylist(context.Context, string) error { return nil }
func (stubPlaylists) ListPlaylists(context.Context) ([]*models.Playlist, error) {
	return []*models.Playlist{{ID: "pl", Title: "Mix"}}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *stubCoordinator) {
	t.Helper()
	coord := newStubCoordinator()
	srv := httptest.NewServer(New(coord, stubPlaylists{}).Router())
	t.Cleanup(srv.Close)
	return srv, coord
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStartBatchMergesDefaults(t *testing.T) {
	srv, coord := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/batches", `{"playlist_id":"pl","options":{"quality":"720p","audio_only":true}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(coord.started) != 1 {
		t.Fatalf("StartBatch not called")
	}
	got := coord.started[0]
	if got.Quality != "720p" || !got.AudioOnly {
		t.Errorf("request options lost: %+v", got)
	}
	if got.Format != models.DefaultFormat || !got.SkipExisting || got.MaxRetries != models.DefaultMaxRetries {
		t.Errorf("defaults not kept: %+v", got)
	}
}

func TestStartBatchErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		body string
		want int
	}{
		{`{"playlist_id":"missing"}`, http.StatusNotFound},
		{`{"playlist_id":"empty"}`, http.StatusUnprocessableEntity},
		{`{"playlist_id":""}`, http.StatusBadRequest},
		{`{"playlist_id":"pl","options":{"format":"avi"}}`, http.StatusBadRequest},
		{`{"playlist_id":"pl","options":{"max_retries":0}}`, http.StatusBadRequest},
		{`{"playlist_id":"pl","options":{"max_concurrent_downloads":0}}`, http.StatusBadRequest},
		{`{"playlist_id":"pl","bogus":1}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp := do(t, http.MethodPost, srv.URL+"/api/v1/batches", tc.body)
		if resp.StatusCode != tc.want {
			t.Errorf("body %s: status = %d, want %d", tc.body, resp.StatusCode, tc.want)
		}
		var e map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e["error"] == "" {
			t.Errorf("body %s: missing error payload", tc.body)
		}
	}
}

func TestBatchActions(t *testing.T) {
	srv, _ := newTestServer(t)

	if resp := do(t, http.MethodPost, srv.URL+"/api/v1/batches/b1/cancel", ""); resp.StatusCode != http.StatusAccepted {
		t.Errorf("cancel status = %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, srv.URL+"/api/v1/batches/b1/cancel", ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("second cancel status = %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, srv.URL+"/api/v1/batches/nope/cancel", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown batch status = %d", resp.StatusCode)
	}

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/batches/b1/retry", "")
	var body map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["requeued"] != 2 {
		t.Errorf("retry body = %v, %v", body, err)
	}
}

func TestClearFinished(t *testing.T) {
	srv, coord := newTestServer(t)
	coord.batches["b0"] = &models.BatchJob{ID: "b0", Status: models.BatchCompleted}

	resp := do(t, http.MethodDelete, srv.URL+"/api/v1/batches", "")
	var body map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["removed"] != 1 {
		t.Errorf("clear body = %v, %v", body, err)
	}
	if _, ok := coord.batches["b1"]; !ok {
		t.Error("running batch was cleared")
	}
}

func TestItemActions(t *testing.T) {
	srv, coord := newTestServer(t)

	if resp := do(t, http.MethodPost, srv.URL+"/api/v1/items/i1/cancel", ""); resp.StatusCode != http.StatusAccepted {
		t.Errorf("cancel status = %d", resp.StatusCode)
	}
	if len(coord.cancelled) != 1 {
		t.Error("CancelItem not called")
	}
	if resp := do(t, http.MethodGet, srv.URL+"/api/v1/items/zzz", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown item status = %d", resp.StatusCode)
	}

	coord.pauseErr = fmt.Errorf("pause: %w", downloads.ErrPauseUnsupported)
	if resp := do(t, http.MethodPost, srv.URL+"/api/v1/items/i1/pause", ""); resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("unsupported pause status = %d", resp.StatusCode)
	}
}

func TestAddDownload(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/downloads", `{"url":"https://example.com/v","title":"Clip"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var item models.DownloadItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		t.Fatal(err)
	}
	if item.Title != "Clip" || item.SourceURL != "https://example.com/v" {
		t.Errorf("item = %+v", item)
	}

	if resp := do(t, http.MethodPost, srv.URL+"/api/v1/downloads", `{}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing url status = %d", resp.StatusCode)
	}
}

func TestPlaylists(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/playlists/pl", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		ID     string                 `json:"id"`
		Videos []models.PlaylistVideo `json:"videos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.ID != "pl" || len(body.Videos) != 1 {
		t.Errorf("body = %+v", body)
	}

	if resp := do(t, http.MethodGet, srv.URL+"/api/v1/playlists/other", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown playlist status = %d", resp.StatusCode)
	}
}

func TestEventStream(t *testing.T) {
	srv, coord := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events?batch=b1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	// Subscription is registered before headers are flushed
	coord.emitter.Emit(events.Event{Kind: events.BatchProgress, BatchID: "other"})
	coord.emitter.Emit(events.Event{Kind: events.BatchComplete, BatchID: "b1"})

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" && len(lines) > 0 {
			break
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) != 2 || lines[0] != "event: batch-complete" || !strings.Contains(lines[1], `"batch_id":"b1"`) {
		t.Errorf("stream = %v", lines)
	}
}
