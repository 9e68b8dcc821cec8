package coordinator

import (
	"cmp"
	"context"
	"slices"
	"time"

	"playlistdl/internal/models"
	"playlistdl/internal/utils/logging"
)

// buildSnapshot serializes the full loop state.
func (c *Coordinator) buildSnapshot() *models.QueueSnapshot {
	snap := &models.QueueSnapshot{
		Version:    models.SnapshotVersion,
		SavedAt:    time.Now().UTC(),
		Sequence:   c.seq,
		Batches:    make([]models.BatchRecord, 0, len(c.batchOrder)),
		Standalone: make([]models.DownloadItem, 0, len(c.standalone)),
		Queue:      make([]string, 0, c.queue.len()),
	}

	for _, id := range c.batchOrder {
		b := c.batches[id]
		rec := models.BatchRecord{
			Batch: *b.Clone(),
			Items: make([]models.DownloadItem, 0, len(b.Items)),
		}
		for _, itemID := range b.Items {
			if item, ok := c.items[itemID]; ok {
				rec.Items = append(rec.Items, *item)
			}
		}
		snap.Batches = append(snap.Batches, rec)
	}

	for _, id := range c.standalone {
		if item, ok := c.items[id]; ok {
			snap.Standalone = append(snap.Standalone, *item)
		}
	}

	for _, id := range c.queue.snapshot() {
		if item, ok := c.items[id]; ok && item.Status == models.ItemQueued {
			snap.Queue = append(snap.Queue, id)
		}
	}
	return snap
}

// persist writes a snapshot through to the store. Failures are logged only.
func (c *Coordinator) persist() {
	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := c.store.WriteQueueSnapshot(ctx, c.buildSnapshot()); err != nil {
		logging.E("Failed to save queue snapshot: %v", err)
	}
}

// Restore loads the last snapshot. It must be called before Run.
//
// Items saved as downloading are demoted to queued and placed ahead of the saved
// queue. Unreadable or incompatible snapshots are discarded and the coordinator
// starts empty.
func (c *Coordinator) Restore(ctx context.Context) error {
	if c.running.Load() {
		return ErrAlreadyRunning
	}
	if c.store == nil {
		return nil
	}

	snap, err := c.store.ReadQueueSnapshot(ctx)
	if err != nil {
		logging.E("Could not read queue snapshot, starting fresh: %v", err)
		return nil
	}
	if snap == nil {
		logging.D(1, "No saved queue snapshot")
		return nil
	}
	if snap.Version != models.SnapshotVersion {
		logging.W("Discarding queue snapshot with version %d (expected %d)", snap.Version, models.SnapshotVersion)
		return nil
	}

	c.load(snap)
	c.persist()
	return nil
}

// load rebuilds loop state from a snapshot.
func (c *Coordinator) load(snap *models.QueueSnapshot) {
	c.seq = snap.Sequence

	var demoted []*models.DownloadItem
	// Items of a batch whose cancellation was in flight are not resumed
	adopt := func(item models.DownloadItem, cancelRequested bool) string {
		it := item
		if it.Status == models.ItemDownloading {
			it.ClearTelemetry()
			if cancelRequested {
				it.Status = models.ItemCancelled
			} else {
				it.Status = models.ItemQueued
				it.ProgressPercent = 0
				demoted = append(demoted, &it)
			}
		}
		c.items[it.ID] = &it
		c.seq = max(c.seq, it.QueuePosition)
		return it.ID
	}

	for _, rec := range snap.Batches {
		b := rec.Batch.Clone()
		if b.Errors == nil {
			b.Errors = []models.BatchError{}
		}
		for _, item := range rec.Items {
			adopt(item, b.CancelRequested)
		}
		c.batches[b.ID] = b
		c.batchOrder = append(c.batchOrder, b.ID)
	}
	for _, item := range snap.Standalone {
		c.standalone = append(c.standalone, adopt(item, false))
	}

	// Previously running items go first, in their original admission order
	slices.SortFunc(demoted, func(a, b *models.DownloadItem) int {
		return cmp.Compare(a.QueuePosition, b.QueuePosition)
	})
	for _, item := range demoted {
		c.queue.pushBack(item.ID)
	}
	for _, id := range snap.Queue {
		if item, ok := c.items[id]; ok && item.Status == models.ItemQueued {
			c.queue.pushBack(id)
		}
	}

	// Queued items missing from the saved ordering go last
	var stray []*models.DownloadItem
	for _, item := range c.items {
		if item.Status != models.ItemQueued {
			continue
		}
		if _, queued := c.queue.member[item.ID]; !queued {
			stray = append(stray, item)
		}
	}
	slices.SortFunc(stray, func(a, b *models.DownloadItem) int {
		return cmp.Compare(a.QueuePosition, b.QueuePosition)
	})
	for _, item := range stray {
		c.queue.pushBack(item.ID)
	}

	for _, id := range c.batchOrder {
		b := c.batches[id]
		if b.Status.IsTerminal() {
			continue
		}
		c.applyConcurrency(b.Options.MaxConcurrentDownloads)
		c.recompute(b)
	}

	logging.I("Restored %d batch(es) and %d standalone item(s), %d queued (%d resumed from interrupted downloads)",
		len(snap.Batches), len(snap.Standalone), c.queue.len(), len(demoted))
}
