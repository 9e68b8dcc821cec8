package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"playlistdl/internal/downloads"
	"playlistdl/internal/models"
)

var errFakeNotFound = errors.New("not found")

// fakeExecutor records starts and lets tests decide when each process exits.
type fakeExecutor struct {
	mu       sync.Mutex
	handles  []*fakeHandle
	running  int
	peak     int
	attempts map[string]int
	startErr error

	// auto, when set, decides the outcome of an attempt as soon as it starts.
	auto  func(req downloads.Request, attempt int) downloads.Outcome
	delay time.Duration

	// cancelDelay makes Cancel report the exit only after the process "dies".
	cancelDelay time.Duration
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{attempts: make(map[string]int)}
}

func (f *fakeExecutor) Start(req downloads.Request, onProgress func(downloads.Progress)) (downloads.Handle, error) {
	f.mu.Lock()
	if f.startErr != nil {
		f.mu.Unlock()
		return nil, f.startErr
	}
	f.attempts[req.URL]++
	attempt := f.attempts[req.URL]

	h := &fakeHandle{
		req:        req,
		exec:       f,
		result:      make(chan downloads.Outcome, 1),
		onProgress:  onProgress,
		cancelDelay: f.cancelDelay,
	}
	f.handles = append(f.handles, h)
	f.running++
	f.peak = max(f.peak, f.running)
	auto, delay := f.auto, f.delay
	f.mu.Unlock()

	if auto != nil {
		o := auto(req, attempt)
		if delay > 0 {
			go func() {
				time.Sleep(delay)
				h.finish(o)
			}()
		} else {
			h.finish(o)
		}
	}
	return h, nil
}

func (f *fakeExecutor) started() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handles)
}

func (f *fakeExecutor) handle(i int) *fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handles[i]
}

func (f *fakeExecutor) startedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	urls := make([]string, 0, len(f.handles))
	for _, h := range f.handles {
		urls = append(urls, h.req.URL)
	}
	return urls
}

func (f *fakeExecutor) stats() (running, peak int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running, f.peak
}

func (f *fakeExecutor) attemptsFor(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[url]
}

type fakeHandle struct {
	req         downloads.Request
	exec        *fakeExecutor
	result      chan downloads.Outcome
	once        sync.Once
	suspended   atomic.Bool
	onProgress  func(downloads.Progress)
	cancelDelay time.Duration
}

func (h *fakeHandle) finish(o downloads.Outcome) {
	h.once.Do(func() {
		h.exec.mu.Lock()
		h.exec.running--
		h.exec.mu.Unlock()
		h.result <- o
	})
}

func (h *fakeHandle) Wait() downloads.Outcome { return <-h.result }

func (h *fakeHandle) Cancel() {
	if h.cancelDelay <= 0 {
		h.finish(downloads.Cancelled())
		return
	}
	go func() {
		time.Sleep(h.cancelDelay)
		h.finish(downloads.Cancelled())
	}()
}

func (h *fakeHandle) Suspend() error {
	h.suspended.Store(true)
	return nil
}

func (h *fakeHandle) Resume() error {
	h.suspended.Store(false)
	return nil
}

// fakeProvider serves playlists from memory.
type fakeProvider struct {
	playlists map[string]*models.Playlist
	videos    map[string][]models.PlaylistVideo
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		playlists: make(map[string]*models.Playlist),
		videos:    make(map[string][]models.PlaylistVideo),
	}
}

func (p *fakeProvider) add(id string, n int) []models.PlaylistVideo {
	p.playlists[id] = &models.Playlist{ID: id, Title: "Playlist " + id}
	videos := make([]models.PlaylistVideo, 0, n)
	for i := 1; i <= n; i++ {
		videos = append(videos, models.PlaylistVideo{
			ID:    fmt.Sprintf("%s-v%d", id, i),
			Title: fmt.Sprintf("Video %d", i),
			URL:   fmt.Sprintf("https://example.com/%s/%d", id, i),
		})
	}
	p.videos[id] = videos
	return videos
}

func (p *fakeProvider) GetPlaylist(_ context.Context, id string) (*models.Playlist, error) {
	pl, ok := p.playlists[id]
	if !ok {
		return nil, fmt.Errorf("playlist %q: %w", id, errFakeNotFound)
	}
	return pl, nil
}

func (p *fakeProvider) GetPlaylistVideos(_ context.Context, id string) ([]models.PlaylistVideo, error) {
	if _, ok := p.playlists[id]; !ok {
		return nil, fmt.Errorf("playlist %q: %w", id, errFakeNotFound)
	}
	return p.videos[id], nil
}

// memStore keeps the last snapshot as JSON so tests observe the durable form.
type memStore struct {
	mu     sync.Mutex
	data   []byte
	writes int
	fail   bool
}

func (s *memStore) ReadQueueSnapshot(_ context.Context) (*models.QueueSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, nil
	}
	var snap models.QueueSnapshot
	if err := json.Unmarshal(s.data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *memStore) WriteQueueSnapshot(_ context.Context, snap *models.QueueSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("disk full")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.data = data
	s.writes++
	return nil
}

func (s *memStore) seed(t *testing.T, snap *models.QueueSnapshot) {
	t.Helper()
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// harness bundles a running coordinator and its fakes.
type harness struct {
	c     *Coordinator
	exec  *fakeExecutor
	prov  *fakeProvider
	store *memStore
	opts  models.DownloadOptions
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	opts := models.DefaultDownloadOptions()
	opts.DownloadPath = t.TempDir()

	h := &harness{
		exec:  newFakeExecutor(),
		prov:  newFakeProvider(),
		store: &memStore{},
		opts:  opts,
	}
	h.c = New(Config{
		Executor: h.exec,
		Provider: h.prov,
		Store:    h.store,
		Defaults: opts,
	})
	return h
}

// run starts the control loop and stops it when the test ends.
func (h *harness) run(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.c.Done():
		case <-time.After(10 * time.Second):
			t.Error("coordinator did not stop")
		}
	})
}

func (h *harness) start(t *testing.T, playlistID string, mutate func(*models.DownloadOptions)) *models.BatchJob {
	t.Helper()
	opts := h.opts
	if mutate != nil {
		mutate(&opts)
	}
	b, err := h.c.StartBatch(context.Background(), playlistID, opts)
	if err != nil {
		t.Fatalf("StartBatch: %v", err)
	}
	return b
}

func (h *harness) view(t *testing.T, batchID string) *models.BatchView {
	t.Helper()
	v, err := h.c.Batch(context.Background(), batchID)
	if err != nil {
		t.Fatalf("Batch(%s): %v", batchID, err)
	}
	return v
}

func (h *harness) waitBatch(t *testing.T, batchID string, want models.BatchStatus) *models.BatchView {
	t.Helper()
	var v *models.BatchView
	waitFor(t, fmt.Sprintf("batch %s", want), func() bool {
		v = h.view(t, batchID)
		return v.Batch.Status == want
	})
	return v
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func countStatus(items []models.DownloadItem, s models.ItemStatus) int {
	n := 0
	for _, it := range items {
		if it.Status == s {
			n++
		}
	}
	return n
}
