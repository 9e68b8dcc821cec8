package cfg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"playlistdl/internal/coordinator"
	"playlistdl/internal/domain/consts"
	"playlistdl/internal/events"
	"playlistdl/internal/models"

	"github.com/spf13/cobra"
)

// queueCmd is the entrypoint for saved queue commands.
func queueCmd(a *app) *cobra.Command {
	qCmd := &cobra.Command{
		Use:   "queue",
		Short: "Saved download queue commands",
		Long:  "Inspect, resume or clear the download queue left by earlier runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("please specify a subcommand. Use --help to see available subcommands")
		},
	}

	qCmd.AddCommand(
		showQueueCmd(a),
		resumeQueueCmd(a),
		clearQueueCmd(a),
	)
	return qCmd
}

// showQueueCmd prints the saved snapshot.
func showQueueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show saved batches and downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			holder, err := a.store().QueueHolder(ctx)
			if err != nil {
				return err
			}
			if holder != nil {
				state := "active"
				if holder.Stale(time.Now()) {
					state = "stale"
				}
				fmt.Fprintf(out, "Held by PID %d on %s (%s), %s since %s\n",
					holder.PID, holder.Host, holder.Command, state, holder.AcquiredAt.Format(time.DateTime))
			}

			snap, err := a.store().ReadQueueSnapshot(ctx)
			if err != nil {
				return err
			}
			if snap == nil || (len(snap.Batches) == 0 && len(snap.Standalone) == 0) {
				fmt.Fprintln(out, "Queue is empty.")
				return nil
			}

			fmt.Fprintf(out, "Saved %s, %d waiting\n\n", snap.SavedAt.Format(time.DateTime), len(snap.Queue))
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BATCH\tPLAYLIST\tSTATUS\tDONE\tFAILED\tPENDING")
			for _, rec := range snap.Batches {
				counts := countItems(rec.Items)
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d\t%d\n",
					rec.Batch.ID, rec.Batch.PlaylistTitle, rec.Batch.Status,
					counts.done, len(rec.Items), counts.failed, counts.pending)
			}
			if len(snap.Standalone) > 0 {
				counts := countItems(snap.Standalone)
				fmt.Fprintf(w, "-\t(standalone)\t-\t%d/%d\t%d\t%d\n",
					counts.done, len(snap.Standalone), counts.failed, counts.pending)
			}
			return w.Flush()
		},
	}
}

// resumeQueueCmd runs the saved queue in the foreground until nothing is pending.
func resumeQueueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "resume",
		Short:       "Resume the saved queue",
		Long:        "Restore interrupted downloads and run them until every item has finished.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{exclusive: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts, err := downloadOptions()
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

			pending, err := coord.Pending(ctx)
			if err != nil {
				return err
			}
			if pending == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to resume.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resuming %d downloads\n", pending)

			err = waitForIdle(ctx, coord, ch, newProgressRenderer(os.Stdout))
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Interrupted. Remaining downloads stay queued.")
				return nil
			}
			return err
		},
	}
}

// clearQueueCmd drops finished entries, or the whole snapshot with --all.
func clearQueueCmd(a *app) *cobra.Command {
	var all bool

	clearCmd := &cobra.Command{
		Use:         "clear",
		Short:       "Clear finished entries from the saved queue",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{exclusive: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if all {
				if err := a.store().ClearQueueSnapshot(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Saved queue cleared.")
				return nil
			}

			snap, err := a.store().ReadQueueSnapshot(ctx)
			if err != nil {
				return err
			}
			removed := 0
			if snap != nil {
				if removed = pruneFinished(snap); removed > 0 {
					snap.SavedAt = time.Now()
					if err := a.store().WriteQueueSnapshot(ctx, snap); err != nil {
						return err
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d finished entries.\n", removed)
			return nil
		},
	}

	clearCmd.Flags().BoolVar(&all, "all", false, "Drop the entire saved queue, including unfinished downloads")
	return clearCmd
}

// waitForIdle renders overall progress until no item is pending.
func waitForIdle(ctx context.Context, coord *coordinator.Coordinator, ch <-chan events.Event, r *progressRenderer) error {
	ticker := time.NewTicker(batchPollInterval)
	defer ticker.Stop()
	defer r.Finish()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-ch:
			if !ok {
				return errors.New("event stream closed")
			}
			switch ev.Kind {
			case events.BatchProgress:
				if ev.Progress != nil {
					r.Update(*ev.Progress)
				}
			case events.BatchComplete:
				if s := ev.Summary; s != nil {
					color := consts.ColorGreen
					if s.FailedVideos > 0 || s.Status == models.BatchCancelled {
						color = consts.ColorYellow
					}
					r.Println("%s %q: %d completed, %d failed", r.tag(color, "Batch "+string(s.Status)), s.PlaylistTitle, s.CompletedVideos, s.FailedVideos)
				}
			case events.DownloadError:
				if ev.Item == nil || ev.Item.BatchID == "" {
					r.Println("%s %s", r.tag(consts.ColorRed, "Failed:"), ev.Error)
				}
			}

		case <-ticker.C:
			pending, err := coord.Pending(ctx)
			if err != nil {
				return err
			}
			if pending == 0 {
				return nil
			}
		}
	}
}

// pruneFinished drops finished batches and standalone items from snap, returning how many were removed.
func pruneFinished(snap *models.QueueSnapshot) int {
	removed := 0
	snap.Batches = slices.DeleteFunc(snap.Batches, func(rec models.BatchRecord) bool {
		if rec.Batch.Status.IsTerminal() {
			removed++
			return true
		}
		return false
	})
	snap.Standalone = slices.DeleteFunc(snap.Standalone, func(it models.DownloadItem) bool {
		if it.Status.IsTerminal() {
			removed++
			return true
		}
		return false
	})
	return removed
}

type itemCounts struct {
	done, failed, pending int
}

// countItems tallies items by outcome.
func countItems(items []models.DownloadItem) itemCounts {
	var c itemCounts
	for _, it := range items {
		switch {
		case it.Status.IsSatisfied():
			c.done++
		case it.Status == models.ItemFailed:
			c.failed++
		case !it.Status.IsTerminal():
			c.pending++
		}
	}
	return c
}
