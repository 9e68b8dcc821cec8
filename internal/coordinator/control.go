package coordinator

import (
	"errors"
	"fmt"
	"time"

	"playlistdl/internal/models"
	"playlistdl/internal/utils/logging"
)

// cancelItem cancels one item. Queued and paused items end immediately; running
// processes are killed and the item ends when the exit is observed.
func (c *Coordinator) cancelItem(item *models.DownloadItem) error {
	if item.Status.IsTerminal() {
		return fmt.Errorf("cannot cancel %s item %q: %w", item.Status, item.ID, ErrInvalidTransition)
	}

	if a, ok := c.reg.get(item.ID); ok {
		if !a.cancelling {
			a.cancelling = true
			a.handle.Cancel()
			logging.D(1, "Kill requested for %q", item.Title)
		}
		return nil
	}

	item.Status = models.ItemCancelled
	item.ClearTelemetry()
	item.UpdatedAt = time.Now()
	return nil
}

// pauseItem suspends a running item (keeping its slot) or holds a queued one back.
func (c *Coordinator) pauseItem(item *models.DownloadItem) error {
	switch item.Status {
	case models.ItemDownloading:
		a, ok := c.reg.get(item.ID)
		if !ok {
			return fmt.Errorf("item %q has no running process: %w", item.ID, ErrInvalidTransition)
		}
		if err := a.handle.Suspend(); err != nil {
			return fmt.Errorf("could not pause %q: %w", item.Title, err)
		}
		a.suspended = true

	case models.ItemQueued:
		// Left in the queue; skipped at dequeue

	default:
		return fmt.Errorf("cannot pause %s item %q: %w", item.Status, item.ID, ErrInvalidTransition)
	}

	item.Status = models.ItemPaused
	item.ClearTelemetry()
	item.UpdatedAt = time.Now()
	return nil
}

// resumeItem continues a suspended process or returns a held item to the queue tail.
func (c *Coordinator) resumeItem(item *models.DownloadItem) error {
	if item.Status != models.ItemPaused {
		return fmt.Errorf("cannot resume %s item %q: %w", item.Status, item.ID, ErrInvalidTransition)
	}

	if a, ok := c.reg.get(item.ID); ok {
		if err := a.handle.Resume(); err != nil {
			return fmt.Errorf("could not resume %q: %w", item.Title, err)
		}
		a.suspended = false
		item.Status = models.ItemDownloading
		item.UpdatedAt = time.Now()
		return nil
	}

	item.Status = models.ItemQueued
	item.UpdatedAt = time.Now()
	c.queue.pushBack(item.ID)
	return nil
}

// cancelBatch cancels every non-terminal item of a batch.
func (c *Coordinator) cancelBatch(b *models.BatchJob) error {
	if b.Status.IsTerminal() {
		return fmt.Errorf("cannot cancel %s batch %q: %w", b.Status, b.ID, ErrInvalidTransition)
	}
	b.CancelRequested = true

	for _, id := range b.Items {
		item, ok := c.items[id]
		if !ok || item.Status.IsTerminal() {
			continue
		}
		if err := c.cancelItem(item); err != nil {
			logging.W("Could not cancel item %q: %v", item.Title, err)
		}
	}
	logging.I("Cancelling batch %q", b.PlaylistTitle)
	return nil
}

// pauseBatch pauses all running and queued items of a batch.
//
// Items that cannot be suspended keep running; the first such error is returned.
func (c *Coordinator) pauseBatch(b *models.BatchJob) error {
	if b.Status.IsTerminal() || b.Status == models.BatchPaused {
		return fmt.Errorf("cannot pause %s batch %q: %w", b.Status, b.ID, ErrInvalidTransition)
	}
	b.Status = models.BatchPaused

	var errs []error
	for _, id := range b.Items {
		item, ok := c.items[id]
		if !ok {
			continue
		}
		if item.Status != models.ItemQueued && item.Status != models.ItemDownloading {
			continue
		}
		if err := c.pauseItem(item); err != nil {
			errs = append(errs, err)
		}
	}
	logging.I("Paused batch %q", b.PlaylistTitle)
	return errors.Join(errs...)
}

// resumeBatch resumes every paused item of a batch in order.
func (c *Coordinator) resumeBatch(b *models.BatchJob) error {
	if b.Status != models.BatchPaused {
		return fmt.Errorf("cannot resume %s batch %q: %w", b.Status, b.ID, ErrInvalidTransition)
	}
	b.Status = models.BatchDownloading

	var errs []error
	for _, id := range b.Items {
		item, ok := c.items[id]
		if !ok || item.Status != models.ItemPaused {
			continue
		}
		if err := c.resumeItem(item); err != nil {
			errs = append(errs, err)
		}
	}
	logging.I("Resumed batch %q", b.PlaylistTitle)
	return errors.Join(errs...)
}

// retryFailed gives permanently failed items of a batch a fresh set of attempts.
func (c *Coordinator) retryFailed(b *models.BatchJob) int {
	n := 0
	for _, id := range b.Items {
		item, ok := c.items[id]
		if !ok || item.Status != models.ItemFailed {
			continue
		}
		item.RetryCount = 0
		item.Error = ""
		item.ProgressPercent = 0
		if b.Status == models.BatchPaused {
			item.Status = models.ItemPaused
			item.UpdatedAt = time.Now()
		} else {
			c.enqueue(item)
		}
		n++
	}
	if n == 0 {
		return 0
	}

	if b.Status.IsTerminal() {
		b.Status = models.BatchQueued
		b.EndedAt = time.Time{}
		b.CancelRequested = false
	}
	logging.I("Retrying %d failed item(s) of batch %q", n, b.PlaylistTitle)
	return n
}
