package coordinator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"playlistdl/internal/downloads"
	"playlistdl/internal/events"
	"playlistdl/internal/models"
	"playlistdl/internal/utils/logging"

	"github.com/google/uuid"
)

// expand fetches a playlist and materializes one item per video.
//
// Runs on the caller's goroutine. Items whose output already exists are created as
// skipped when skipExisting is set.
func (c *Coordinator) expand(ctx context.Context, playlistID string, opts models.DownloadOptions) (*models.BatchJob, []*models.DownloadItem, error) {
	playlist, err := c.provider.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load playlist %q: %w", playlistID, err)
	}
	videos, err := c.provider.GetPlaylistVideos(ctx, playlistID)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load videos for playlist %q: %w", playlistID, err)
	}
	if len(videos) == 0 {
		return nil, nil, fmt.Errorf("playlist %q: %w", playlistID, ErrEmptyPlaylist)
	}

	batchID, err := newID()
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()

	batch := &models.BatchJob{
		ID:            batchID,
		PlaylistID:    playlist.ID,
		PlaylistTitle: playlist.Title,
		Items:         make([]string, 0, len(videos)),
		Options:       opts,
		Status:        models.BatchQueued,
		StartedAt:     now,
		Errors:        []models.BatchError{},
	}

	used := make(map[string]int, len(videos))
	items := make([]*models.DownloadItem, 0, len(videos))
	for _, v := range videos {
		item, err := c.newItem(v, batchID, opts, used, now)
		if err != nil {
			return nil, nil, err
		}
		batch.Items = append(batch.Items, item.ID)
		items = append(items, item)
	}
	return batch, items, nil
}

// newItem builds an item for one video, resolving its output path.
func (c *Coordinator) newItem(v models.PlaylistVideo, batchID string, opts models.DownloadOptions, used map[string]int, now time.Time) (*models.DownloadItem, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	title := v.Title
	if title == "" {
		title = v.ID
	}
	out := uniqueOutputPath(title, opts, used)

	item := &models.DownloadItem{
		ID:         id,
		BatchID:    batchID,
		SourceURL:  v.URL,
		Title:      title,
		Thumbnail:  v.Thumbnail,
		Duration:   v.Duration,
		OutputPath: out,
		Status:     models.ItemQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if opts.SkipExisting && fileExists(out) {
		item.Status = models.ItemSkipped
		item.ProgressPercent = 100
		logging.I("Skipping %q, output already exists at %q", title, out)
	}
	return item, nil
}

// uniqueOutputPath disambiguates titles repeated within one expansion.
func uniqueOutputPath(title string, opts models.DownloadOptions, used map[string]int) string {
	out := downloads.OutputPath(title, opts)
	n := used[out]
	used[out] = n + 1
	if n == 0 {
		return out
	}
	// A generated name may itself be taken by a later or earlier title
	for k := n + 1; ; k++ {
		next := downloads.OutputPath(title+" ("+strconv.Itoa(k)+")", opts)
		if used[next] == 0 {
			used[next] = 1
			return next
		}
	}
}

// recompute derives batch metrics from item states and finalizes the batch when every item is terminal.
func (c *Coordinator) recompute(b *models.BatchJob) {
	p := models.BatchProgress{TotalVideos: len(b.Items)}

	var (
		fractional float64
		remaining  float64
		downloaded bool
	)
	for _, id := range b.Items {
		item, ok := c.items[id]
		if !ok {
			continue
		}
		switch item.Status {
		case models.ItemCompleted:
			p.CompletedVideos++
		case models.ItemSkipped:
			p.CompletedVideos++
			p.SkippedVideos++
		case models.ItemFailed:
			p.FailedVideos++
		case models.ItemCancelled:
			p.CancelledVideos++
		case models.ItemDownloading:
			p.ActiveVideos++
			p.DownloadSpeed += item.SpeedBytesPerSec
			fractional += item.ProgressPercent / 100
			if !downloaded {
				p.CurrentTitle = item.Title
				downloaded = true
			}
		case models.ItemPaused:
			if _, held := c.reg.get(id); held {
				p.ActiveVideos++
				fractional += item.ProgressPercent / 100
			}
		}
	}

	finished := p.CompletedVideos + p.FailedVideos + p.CancelledVideos
	if p.TotalVideos > 0 {
		p.OverallProgress = min((float64(finished)+fractional)/float64(p.TotalVideos)*100, 100)
	}

	remaining = float64(p.TotalVideos-finished) - fractional
	if p.DownloadSpeed > 0 && remaining > 0 {
		p.EstimatedTimeRemaining = int(remaining * c.itemSize / p.DownloadSpeed)
	}
	b.Progress = p

	if b.Status.IsTerminal() {
		return
	}

	if finished == p.TotalVideos {
		c.finalize(b)
		return
	}
	if b.Status == models.BatchQueued && p.ActiveVideos > 0 {
		b.Status = models.BatchDownloading
	}
	c.emit(events.Event{Kind: events.BatchProgress, BatchID: b.ID, Progress: progressOf(b)})
}

// finalize closes a batch whose items are all terminal.
func (c *Coordinator) finalize(b *models.BatchJob) {
	if b.CancelRequested {
		b.Status = models.BatchCancelled
	} else {
		b.Status = models.BatchCompleted
	}
	b.EndedAt = time.Now()
	c.persist()

	summary := b.Summary()
	logging.S("Batch %q finished: %d completed, %d failed, %d cancelled of %d",
		b.PlaylistTitle, summary.CompletedVideos, summary.FailedVideos, summary.CancelledVideos, summary.TotalVideos)

	c.emit(events.Event{Kind: events.BatchProgress, BatchID: b.ID, Progress: progressOf(b)})
	c.emit(events.Event{Kind: events.BatchComplete, BatchID: b.ID, Summary: &summary})
}

// applyConcurrency raises or lowers the global admission ceiling.
func (c *Coordinator) applyConcurrency(n int) {
	if n <= 0 || n == c.reg.limit {
		return
	}
	logging.D(1, "Concurrency ceiling changed from %d to %d", c.reg.limit, n)
	c.reg.setLimit(n)
}

// resolveOptions fills a request's unset fields from the coordinator defaults.
func (c *Coordinator) resolveOptions(opts models.DownloadOptions) models.DownloadOptions {
	if opts.DownloadPath == "" {
		opts.DownloadPath = c.defaults.DownloadPath
	}
	return opts.WithDefaults()
}

func progressOf(b *models.BatchJob) *models.BatchProgress {
	p := b.Progress
	return &p
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.D(2, "Could not stat %q: %v", path, err)
		}
		return false
	}
	return !info.IsDir()
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
