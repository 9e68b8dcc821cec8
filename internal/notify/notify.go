// Package notify delivers coordinator events to logs and webhooks.
package notify

import (
	"github.com/dustin/go-humanize"

	"playlistdl/internal/events"
	"playlistdl/internal/utils/logging"
)

// LogSink writes every event to the program log.
type LogSink struct{}

// Handle implements events.Sink.
func (LogSink) Handle(ev events.Event) {
	switch ev.Kind {
	case events.BatchProgress:
		if p := ev.Progress; p != nil {
			logging.D(3, "Batch %s: %.1f%% (%d/%d done, %s/s)",
				ev.BatchID, p.OverallProgress, p.CompletedVideos+p.FailedVideos+p.CancelledVideos, p.TotalVideos,
				humanize.IBytes(uint64(p.DownloadSpeed)))
		}

	case events.BatchComplete:
		if s := ev.Summary; s != nil {
			logging.S("Batch %q %s: %d completed (%d skipped), %d failed, %d cancelled in %s",
				s.PlaylistTitle, s.Status, s.CompletedVideos, s.SkippedVideos, s.FailedVideos, s.CancelledVideos,
				s.Elapsed.Round(1e9))
		}

	case events.BatchError:
		title := ev.ItemID
		if ev.Failure != nil {
			title = ev.Failure.Title
		}
		logging.W("Batch %s: %q failed permanently: %s", ev.BatchID, title, ev.Error)

	case events.DownloadComplete:
		if ev.Item != nil {
			logging.D(1, "Completed %q -> %s", ev.Item.Title, ev.Item.OutputPath)
		}

	case events.DownloadError:
		logging.D(1, "Download %s errored: %s", ev.ItemID, ev.Error)
	}
}
