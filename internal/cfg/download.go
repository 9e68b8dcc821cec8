package cfg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"playlistdl/internal/contracts"
	"playlistdl/internal/database/repo"
	"playlistdl/internal/domain/consts"
	"playlistdl/internal/events"
	"playlistdl/internal/models"

	"github.com/spf13/cobra"
)

const batchPollInterval = time.Second

// downloadCmd downloads one playlist in the foreground.
func downloadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "download <playlist-id|playlist-url>",
		Short: "Download a playlist",
		Long: "Start a batch for a stored playlist and show its progress until it finishes. " +
			"A playlist URL, or an id not yet in the catalog, is imported first.",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{exclusive: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts, err := downloadOptions()
			if err != nil {
				return err
			}
			playlistID, err := a.resolvePlaylist(ctx, args[0])
			if err != nil {
				return err
			}

			coord, stop, err := a.startCoordinator(ctx, opts)
			if err != nil {
				return err
			}
			defer stop()

			ch, unsubscribe := coord.Events().Subscribe(events.DefaultBuffer)
			defer unsubscribe()

			batch, err := coord.StartBatch(ctx, playlistID, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloading %q (%d videos) to %s\n",
				batch.PlaylistTitle, len(batch.Items), opts.DownloadPath)

			summary, err := waitForBatch(ctx, coord, ch, batch.ID, newProgressRenderer(os.Stdout))
			if err != nil {
				if errors.Is(err, context.Canceled) {
					fmt.Fprintln(cmd.OutOrStdout(), "Interrupted. Run 'playlistdl queue resume' to continue.")
					return nil
				}
				return err
			}
			printSummary(cmd, summary)

			if summary.FailedVideos > 0 {
				return fmt.Errorf("%d of %d videos failed", summary.FailedVideos, summary.TotalVideos)
			}
			return nil
		},
	}
}

// resolvePlaylist returns the catalog id for ref, importing the playlist when it is a URL or unknown.
func (a *app) resolvePlaylist(ctx context.Context, ref string) (string, error) {
	if !strings.Contains(ref, "://") {
		_, err := a.store().GetPlaylist(ctx, ref)
		if err == nil {
			return ref, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return "", err
		}
	}
	res, err := a.importPlaylist(ctx, ref)
	if err != nil {
		return "", err
	}
	return res.Playlist.ID, nil
}

// waitForBatch renders progress for batchID until it finishes.
//
// Events may be dropped under load, so the batch is also polled.
func waitForBatch(ctx context.Context, coord contracts.Coordinator, ch <-chan events.Event, batchID string, r *progressRenderer) (models.BatchSummary, error) {
	ticker := time.NewTicker(batchPollInterval)
	defer ticker.Stop()
	defer r.Finish()

	for {
		select {
		case <-ctx.Done():
			return models.BatchSummary{}, ctx.Err()

		case ev, ok := <-ch:
			if !ok {
				return models.BatchSummary{}, errors.New("event stream closed")
			}
			if ev.BatchID != batchID {
				continue
			}
			switch ev.Kind {
			case events.BatchProgress:
				if ev.Progress != nil {
					r.Update(*ev.Progress)
				}
			case events.BatchError:
				if ev.Failure != nil {
					r.Println("%s %s: %s", r.tag(consts.ColorRed, "Failed:"), ev.Failure.Title, ev.Failure.Error)
				}
			case events.BatchComplete:
				if ev.Summary != nil {
					return *ev.Summary, nil
				}
			}

		case <-ticker.C:
			view, err := coord.Batch(ctx, batchID)
			if err != nil {
				return models.BatchSummary{}, err
			}
			if view.Batch.Status.IsTerminal() {
				return view.Batch.Summary(), nil
			}
		}
	}
}

// printSummary prints the completion report of a batch.
func printSummary(cmd *cobra.Command, s models.BatchSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nBatch %s %s in %s\n", s.BatchID, s.Status, s.Elapsed.Round(time.Second))
	fmt.Fprintf(out, "  Completed: %d (skipped %d)\n  Failed:    %d\n  Cancelled: %d\n",
		s.CompletedVideos, s.SkippedVideos, s.FailedVideos, s.CancelledVideos)
	for _, e := range s.Errors {
		fmt.Fprintf(out, "  - %s: %s\n", e.Title, e.Error)
	}
}
