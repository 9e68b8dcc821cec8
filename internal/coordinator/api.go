package coordinator

import (
	"context"
	"fmt"
	"slices"
	"time"

	"playlistdl/internal/models"
	"playlistdl/internal/utils/logging"
)

// StartBatch expands a playlist into a batch and queues its items.
//
// Metadata failures abort before anything is created.
func (c *Coordinator) StartBatch(ctx context.Context, playlistID string, opts models.DownloadOptions) (*models.BatchJob, error) {
	opts = c.resolveOptions(opts)

	batch, items, err := c.expand(ctx, playlistID, opts)
	if err != nil {
		return nil, err
	}

	var out *models.BatchJob
	err = c.submit(ctx, func() {
		c.batches[batch.ID] = batch
		c.batchOrder = append(c.batchOrder, batch.ID)
		for _, item := range items {
			c.items[item.ID] = item
			if item.Status == models.ItemQueued {
				c.enqueue(item)
			}
		}
		c.applyConcurrency(opts.MaxConcurrentDownloads)

		logging.I("Queued batch %q with %d video(s)", batch.PlaylistTitle, len(items))
		c.persist()
		c.recompute(batch)
		c.admitNext()
		out = batch.Clone()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddDownload queues a single video outside any batch using the default options.
func (c *Coordinator) AddDownload(ctx context.Context, video models.PlaylistVideo) (*models.DownloadItem, error) {
	if video.URL == "" {
		return nil, fmt.Errorf("video %q has no URL", video.ID)
	}
	item, err := c.newItem(video, "", c.defaults, make(map[string]int), time.Now())
	if err != nil {
		return nil, err
	}

	var out *models.DownloadItem
	err = c.submit(ctx, func() {
		c.items[item.ID] = item
		c.standalone = append(c.standalone, item.ID)
		if item.Status == models.ItemQueued {
			c.enqueue(item)
		}
		c.persist()
		c.admitNext()
		out = cloneItem(item)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelItem cancels one item.
func (c *Coordinator) CancelItem(ctx context.Context, itemID string) error {
	return c.withItem(ctx, itemID, c.cancelItem)
}

// PauseItem pauses one item. A running item keeps its concurrency slot.
func (c *Coordinator) PauseItem(ctx context.Context, itemID string) error {
	return c.withItem(ctx, itemID, c.pauseItem)
}

// ResumeItem resumes a paused item.
func (c *Coordinator) ResumeItem(ctx context.Context, itemID string) error {
	return c.withItem(ctx, itemID, c.resumeItem)
}

// CancelBatch cancels every unfinished item in a batch.
func (c *Coordinator) CancelBatch(ctx context.Context, batchID string) error {
	return c.withBatch(ctx, batchID, c.cancelBatch)
}

// PauseBatch pauses a batch.
func (c *Coordinator) PauseBatch(ctx context.Context, batchID string) error {
	return c.withBatch(ctx, batchID, c.pauseBatch)
}

// ResumeBatch resumes a paused batch.
func (c *Coordinator) ResumeBatch(ctx context.Context, batchID string) error {
	return c.withBatch(ctx, batchID, c.resumeBatch)
}

// RetryFailed re-queues a batch's permanently failed items and returns how many.
func (c *Coordinator) RetryFailed(ctx context.Context, batchID string) (int, error) {
	var n int
	err := c.withBatch(ctx, batchID, func(b *models.BatchJob) error {
		n = c.retryFailed(b)
		return nil
	})
	return n, err
}

// Batch returns a copy of a batch and its items.
func (c *Coordinator) Batch(ctx context.Context, batchID string) (*models.BatchView, error) {
	var (
		view *models.BatchView
		err  error
	)
	if serr := c.submit(ctx, func() {
		b, ok := c.batches[batchID]
		if !ok {
			err = fmt.Errorf("batch %q: %w", batchID, ErrUnknownBatch)
			return
		}
		view = c.viewOf(b)
	}); serr != nil {
		return nil, serr
	}
	return view, err
}

// Batches returns copies of all batches in creation order.
func (c *Coordinator) Batches(ctx context.Context) ([]*models.BatchJob, error) {
	var out []*models.BatchJob
	err := c.submit(ctx, func() {
		out = make([]*models.BatchJob, 0, len(c.batchOrder))
		for _, id := range c.batchOrder {
			out = append(out, c.batches[id].Clone())
		}
	})
	return out, err
}

// Item returns a copy of one item.
func (c *Coordinator) Item(ctx context.Context, itemID string) (*models.DownloadItem, error) {
	var (
		out *models.DownloadItem
		err error
	)
	if serr := c.submit(ctx, func() {
		item, ok := c.items[itemID]
		if !ok {
			err = fmt.Errorf("item %q: %w", itemID, ErrUnknownItem)
			return
		}
		out = cloneItem(item)
	}); serr != nil {
		return nil, serr
	}
	return out, err
}

// Standalone returns copies of the items queued outside any batch.
func (c *Coordinator) Standalone(ctx context.Context) ([]models.DownloadItem, error) {
	var out []models.DownloadItem
	err := c.submit(ctx, func() {
		out = make([]models.DownloadItem, 0, len(c.standalone))
		for _, id := range c.standalone {
			out = append(out, *c.items[id])
		}
	})
	return out, err
}

// Pending returns how many items are queued or downloading. Paused items are not counted.
func (c *Coordinator) Pending(ctx context.Context) (int, error) {
	var n int
	err := c.submit(ctx, func() {
		for _, item := range c.items {
			if item.Status == models.ItemQueued || item.Status == models.ItemDownloading {
				n++
			}
		}
	})
	return n, err
}

// Snapshot returns the state as it would be persisted.
func (c *Coordinator) Snapshot(ctx context.Context) (*models.QueueSnapshot, error) {
	var snap *models.QueueSnapshot
	err := c.submit(ctx, func() {
		snap = c.buildSnapshot()
	})
	return snap, err
}

// ClearFinished forgets finished batches and standalone items, returning how many were removed.
func (c *Coordinator) ClearFinished(ctx context.Context) (int, error) {
	var removed int
	err := c.submit(ctx, func() {
		c.batchOrder = slices.DeleteFunc(c.batchOrder, func(id string) bool {
			b := c.batches[id]
			if !b.Status.IsTerminal() {
				return false
			}
			for _, itemID := range b.Items {
				delete(c.items, itemID)
			}
			delete(c.batches, id)
			removed++
			return true
		})
		c.standalone = slices.DeleteFunc(c.standalone, func(id string) bool {
			if !c.items[id].Status.IsTerminal() {
				return false
			}
			delete(c.items, id)
			removed++
			return true
		})
		if removed > 0 {
			c.persist()
		}
	})
	return removed, err
}

// withItem runs fn against an item on the loop, then persists and re-admits.
func (c *Coordinator) withItem(ctx context.Context, itemID string, fn func(*models.DownloadItem) error) error {
	var err error
	if serr := c.submit(ctx, func() {
		item, ok := c.items[itemID]
		if !ok {
			err = fmt.Errorf("item %q: %w", itemID, ErrUnknownItem)
			return
		}
		err = fn(item)
		c.afterControl(c.batchOf(item))
	}); serr != nil {
		return serr
	}
	return err
}

// withBatch runs fn against a batch on the loop, then persists and re-admits.
func (c *Coordinator) withBatch(ctx context.Context, batchID string, fn func(*models.BatchJob) error) error {
	var err error
	if serr := c.submit(ctx, func() {
		b, ok := c.batches[batchID]
		if !ok {
			err = fmt.Errorf("batch %q: %w", batchID, ErrUnknownBatch)
			return
		}
		err = fn(b)
		c.afterControl(b)
	}); serr != nil {
		return serr
	}
	return err
}

func (c *Coordinator) afterControl(b *models.BatchJob) {
	c.persist()
	if b != nil {
		c.recompute(b)
	}
	c.admitNext()
}

func (c *Coordinator) viewOf(b *models.BatchJob) *models.BatchView {
	view := &models.BatchView{
		Batch: b.Clone(),
		Items: make([]models.DownloadItem, 0, len(b.Items)),
	}
	for _, id := range b.Items {
		if item, ok := c.items[id]; ok {
			view.Items = append(view.Items, *item)
		}
	}
	return view
}
