package coordinator

import (
	"time"

	"playlistdl/internal/downloads"
	"playlistdl/internal/events"
	"playlistdl/internal/models"
	"playlistdl/internal/utils/logging"
)

// onProgress applies a progress tick from a running process.
func (c *Coordinator) onProgress(m progressMsg) {
	a, ok := c.reg.get(m.itemID)
	if !ok || a.attempt != m.attempt || a.suspended {
		return
	}
	item, ok := c.items[m.itemID]
	if !ok || item.Status != models.ItemDownloading {
		return
	}

	item.ProgressPercent = m.prog.Percent
	item.SpeedBytesPerSec = m.prog.SpeedBytesPerSec
	item.ETASeconds = m.prog.ETASeconds
	item.UpdatedAt = time.Now()

	if b := c.batchOf(item); b != nil {
		c.recompute(b)
	}
}

// onExit handles a process exit and frees its slot.
func (c *Coordinator) onExit(m exitMsg) {
	a, ok := c.reg.get(m.itemID)
	if !ok || a.attempt != m.attempt {
		return
	}
	c.reg.remove(m.itemID)

	item, ok := c.items[m.itemID]
	if !ok {
		c.admitNext()
		return
	}

	outcome := m.outcome
	if a.cancelling && outcome.Kind != downloads.OutcomeSuccess {
		outcome = downloads.Cancelled()
	}

	c.applyOutcome(item, outcome)
	c.persist()
	if b := c.batchOf(item); b != nil {
		c.recompute(b)
	}
	c.admitNext()
}

// applyOutcome moves an item to its post-execution state.
//
// Failures go back to the queue head until retryCount reaches maxRetries.
func (c *Coordinator) applyOutcome(item *models.DownloadItem, outcome downloads.Outcome) {
	now := time.Now()
	item.ClearTelemetry()
	item.UpdatedAt = now
	b := c.batchOf(item)

	switch outcome.Kind {
	case downloads.OutcomeSuccess:
		item.Status = models.ItemCompleted
		item.ProgressPercent = 100
		item.Error = ""
		logging.S("Downloaded %q", item.Title)
		c.emit(events.Event{Kind: events.DownloadComplete, BatchID: item.BatchID, ItemID: item.ID, Item: cloneItem(item)})

	case downloads.OutcomeCancelled:
		item.Status = models.ItemCancelled
		logging.I("Cancelled download %q", item.Title)

	case downloads.OutcomeFailure:
		item.RetryCount++
		maxRetries := c.optionsFor(item).MaxRetries

		if item.RetryCount < maxRetries {
			switch {
			case b != nil && b.CancelRequested:
				item.Status = models.ItemCancelled
			case b != nil && b.Status == models.BatchPaused:
				item.Status = models.ItemPaused
			default:
				c.requeueFront(item)
			}
			item.ProgressPercent = 0
			logging.W("Download %q failed (attempt %d of %d), retrying: %s", item.Title, item.RetryCount, maxRetries, outcome.Reason)
			return
		}

		item.Status = models.ItemFailed
		item.Error = outcome.Reason
		logging.E("Download %q failed after %d attempt(s): %s", item.Title, item.RetryCount, outcome.Reason)

		failure := models.BatchError{
			ItemID:    item.ID,
			Title:     item.Title,
			Error:     outcome.Reason,
			Timestamp: now,
		}
		c.emit(events.Event{Kind: events.DownloadError, BatchID: item.BatchID, ItemID: item.ID, Item: cloneItem(item), Error: outcome.Reason})
		if b != nil {
			b.Errors = append(b.Errors, failure)
			c.emit(events.Event{Kind: events.BatchError, BatchID: b.ID, ItemID: item.ID, Failure: &failure, Error: outcome.Reason})
		}
	}
}

func (c *Coordinator) emit(ev events.Event) {
	c.emitter.Emit(ev)
}

func cloneItem(item *models.DownloadItem) *models.DownloadItem {
	cp := *item
	return &cp
}
