// Package coordinator queues playlist downloads under a concurrency ceiling, drives them
// through the downloader, retries failures, aggregates batch progress and persists its state.
//
// All mutable state is owned by the goroutine running Run. Public methods hand closures
// to that goroutine and wait for them to finish.
package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"playlistdl/internal/contracts"
	"playlistdl/internal/domain/consts"
	"playlistdl/internal/downloads"
	"playlistdl/internal/events"
	"playlistdl/internal/models"
	"playlistdl/internal/utils/logging"
)

const (
	// DefaultAssumedItemBytes is the per-video size used for batch ETA estimates.
	DefaultAssumedItemBytes = 50 << 20

	progressBuffer = 256
	shutdownGrace  = 5 * time.Second
)

// Config wires a Coordinator to its collaborators.
type Config struct {
	Executor downloads.Executor
	Provider contracts.MetadataProvider
	Store    contracts.SnapshotStore // optional
	Emitter  *events.Emitter         // optional
	Defaults models.DownloadOptions

	AssumedItemBytes float64
}

// Coordinator owns the queue, the concurrency registry and the item records.
type Coordinator struct {
	exec     downloads.Executor
	provider contracts.MetadataProvider
	store    contracts.SnapshotStore
	emitter  *events.Emitter
	defaults models.DownloadOptions
	itemSize float64

	// Loop-owned state
	items      map[string]*models.DownloadItem
	batches    map[string]*models.BatchJob
	batchOrder []string
	standalone []string
	queue      *queue
	reg        *registry
	seq        int64
	attempts   uint64

	requests chan func()
	progress chan progressMsg
	exits    chan exitMsg
	done     chan struct{}
	running  atomic.Bool
	stopOnce sync.Once
}

type progressMsg struct {
	itemID  string
	attempt uint64
	prog    downloads.Progress
}

type exitMsg struct {
	itemID  string
	attempt uint64
	outcome downloads.Outcome
}

// New builds a coordinator. Call Restore (optional) and then Run.
func New(cfg Config) *Coordinator {
	defaults := cfg.Defaults.WithDefaults()

	emitter := cfg.Emitter
	if emitter == nil {
		emitter = events.NewEmitter()
	}
	itemSize := cfg.AssumedItemBytes
	if itemSize <= 0 {
		itemSize = DefaultAssumedItemBytes
	}

	return &Coordinator{
		exec:     cfg.Executor,
		provider: cfg.Provider,
		store:    cfg.Store,
		emitter:  emitter,
		defaults: defaults,
		itemSize: itemSize,
		items:    make(map[string]*models.DownloadItem),
		batches:  make(map[string]*models.BatchJob),
		queue:    newQueue(),
		reg:      newRegistry(defaults.MaxConcurrentDownloads),
		requests: make(chan func()),
		progress: make(chan progressMsg, progressBuffer),
		exits:    make(chan exitMsg),
		done:     make(chan struct{}),
	}
}

// Events returns the emitter carrying this coordinator's events.
func (c *Coordinator) Events() *events.Emitter {
	return c.emitter
}

// Defaults returns the options used for standalone downloads.
func (c *Coordinator) Defaults() models.DownloadOptions {
	return c.defaults
}

// Run executes the control loop until ctx is done.
//
// On exit running processes are killed and a final snapshot is written. Their items
// are left downloading in the snapshot and demoted on the next Restore.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.stopOnce.Do(func() { close(c.done) })

	logging.I("Download coordinator started (max concurrent: %d)", c.reg.limit)
	c.admitNext()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil

		case fn := <-c.requests:
			fn()

		case m := <-c.progress:
			c.onProgress(m)

		case m := <-c.exits:
			c.onExit(m)
		}
	}
}

// Done is closed once Run has returned.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// submit runs fn on the control loop and waits for it.
func (c *Coordinator) submit(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case c.requests <- wrapped:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-c.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// shutdown kills running processes and writes the final snapshot.
func (c *Coordinator) shutdown() {
	if c.reg.size() > 0 {
		logging.I("Stopping %d running download(s)", c.reg.size())
	}
	for _, a := range c.reg.active {
		a.handle.Cancel()
	}

	deadline := time.NewTimer(shutdownGrace)
	defer deadline.Stop()

	for c.reg.size() > 0 {
		select {
		case m := <-c.exits:
			c.onShutdownExit(m)
		case <-c.progress:
		case <-deadline.C:
			logging.W("%d download process(es) did not exit within %v", c.reg.size(), shutdownGrace)
			c.persist()
			return
		}
	}
	c.persist()
	logging.I("Download coordinator stopped")
}

// onShutdownExit records an exit seen while stopping. Items that finished or
// were being cancelled get their outcome; the rest stay downloading so restore
// re-queues them. Nothing new is admitted.
func (c *Coordinator) onShutdownExit(m exitMsg) {
	a, ok := c.reg.get(m.itemID)
	if !ok || a.attempt != m.attempt {
		return
	}
	c.reg.remove(m.itemID)

	item, ok := c.items[m.itemID]
	if !ok {
		return
	}
	var outcome downloads.Outcome
	switch {
	case m.outcome.Kind == downloads.OutcomeSuccess:
		outcome = m.outcome
	case a.cancelling:
		outcome = downloads.Cancelled()
	default:
		return
	}
	c.applyOutcome(item, outcome)
	if b := c.batchOf(item); b != nil {
		c.recompute(b)
	}
}

// startExecution spawns the downloader for an admitted item.
func (c *Coordinator) startExecution(item *models.DownloadItem, opts models.DownloadOptions) (*activeDownload, error) {
	c.attempts++
	attempt := c.attempts
	id := item.ID

	req := downloads.Request{
		ItemID:     id,
		URL:        item.SourceURL,
		OutputPath: item.OutputPath,
		Options:    opts,
	}

	h, err := c.exec.Start(req, func(p downloads.Progress) {
		select {
		case c.progress <- progressMsg{itemID: id, attempt: attempt, prog: p}:
		default:
		}
	})
	if err != nil {
		return nil, err
	}

	go func() {
		o := h.Wait()
		select {
		case c.exits <- exitMsg{itemID: id, attempt: attempt, outcome: o}:
		case <-c.done:
		}
	}()

	return &activeDownload{handle: h, attempt: attempt}, nil
}

// persistTimeout bounds one snapshot write.
var persistTimeout = consts.DatabaseTimeout
