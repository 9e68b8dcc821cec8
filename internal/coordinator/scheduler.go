package coordinator

import (
	"time"

	"playlistdl/internal/downloads"
	"playlistdl/internal/models"
	"playlistdl/internal/utils/logging"
)

// enqueue appends an item to the queue tail as queued.
func (c *Coordinator) enqueue(item *models.DownloadItem) {
	c.seq++
	item.QueuePosition = c.seq
	item.Status = models.ItemQueued
	item.UpdatedAt = time.Now()
	c.queue.pushBack(item.ID)
}

// requeueFront puts a retried item at the queue head.
func (c *Coordinator) requeueFront(item *models.DownloadItem) {
	item.Status = models.ItemQueued
	item.UpdatedAt = time.Now()
	c.queue.pushFront(item.ID)
}

// admitNext starts queued items while capacity allows.
func (c *Coordinator) admitNext() {
	admitted := false
	touched := make(map[string]struct{})

	for c.reg.hasCapacity() {
		id, ok := c.queue.popFront()
		if !ok {
			break
		}
		item, ok := c.items[id]
		if !ok || item.Status != models.ItemQueued {
			continue
		}
		if _, running := c.reg.get(id); running {
			continue
		}

		opts := c.optionsFor(item)
		a, err := c.startExecution(item, opts)
		if err != nil {
			logging.E("Failed to start download for %q: %v", item.Title, err)
			c.applyOutcome(item, downloads.Failure(err.Error()))
			admitted = true
			c.markTouched(touched, item)
			continue
		}

		c.reg.add(id, a)
		item.Status = models.ItemDownloading
		item.ProgressPercent = 0
		item.ClearTelemetry()
		item.UpdatedAt = time.Now()
		admitted = true
		c.markTouched(touched, item)

		if b := c.batchOf(item); b != nil && b.Status == models.BatchQueued {
			b.Status = models.BatchDownloading
		}
		logging.I("Started download %q (attempt %d)", item.Title, item.RetryCount+1)
	}

	if !admitted {
		return
	}
	c.persist()
	for batchID := range touched {
		if b, ok := c.batches[batchID]; ok {
			c.recompute(b)
		}
	}
}

func (c *Coordinator) markTouched(touched map[string]struct{}, item *models.DownloadItem) {
	if item.BatchID != "" {
		touched[item.BatchID] = struct{}{}
	}
}

// optionsFor returns the options an item runs with.
func (c *Coordinator) optionsFor(item *models.DownloadItem) models.DownloadOptions {
	if b := c.batchOf(item); b != nil {
		return b.Options
	}
	return c.defaults
}

func (c *Coordinator) batchOf(item *models.DownloadItem) *models.BatchJob {
	if item.BatchID == "" {
		return nil
	}
	return c.batches[item.BatchID]
}
