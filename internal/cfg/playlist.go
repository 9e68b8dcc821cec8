package cfg

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"playlistdl/internal/utils/logging"

	"github.com/spf13/cobra"
)

// playlistCmd is the entrypoint for playlist catalog commands.
func playlistCmd(a *app) *cobra.Command {
	plCmd := &cobra.Command{
		Use:   "playlist",
		Short: "Playlist catalog commands",
		Long:  "Manage stored playlists with subcommands like import, list, show and delete.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("please specify a subcommand. Use --help to see available subcommands")
		},
	}

	plCmd.AddCommand(
		importPlaylistCmd(a),
		listPlaylistsCmd(a),
		showPlaylistCmd(a),
		deletePlaylistCmd(a),
	)
	return plCmd
}

// importPlaylistCmd fetches and stores a playlist.
func importPlaylistCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <playlist-url|playlist-id>",
		Short: "Fetch a playlist's metadata into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.importPlaylist(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d videos\n", res.Playlist.ID, res.Playlist.Title, len(res.Videos))
			return nil
		},
	}
}

// listPlaylistsCmd lists the catalog.
func listPlaylistsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored playlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			playlists, err := a.store().ListPlaylists(cmd.Context())
			if err != nil {
				return err
			}
			if len(playlists) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No playlists stored. Use 'playlistdl playlist import <url>'.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
			for _, p := range playlists {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Title, p.UpdatedAt.Format(time.DateTime))
			}
			return w.Flush()
		},
	}
}

// showPlaylistCmd prints a playlist and its videos.
func showPlaylistCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <playlist-id>",
		Short: "Show a stored playlist and its videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := a.store().GetPlaylist(ctx, args[0])
			if err != nil {
				return err
			}
			videos, err := a.store().GetPlaylistVideos(ctx, p.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", p.Title, p.ID)
			if p.URL != "" {
				fmt.Fprintln(out, p.URL)
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tTITLE\tDURATION\tURL")
			for i, v := range videos {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, v.Title, time.Duration(v.Duration)*time.Second, v.URL)
			}
			return w.Flush()
		},
	}
}

// deletePlaylistCmd removes a playlist from the catalog.
func deletePlaylistCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <playlist-id>",
		Short: "Delete a stored playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store().DeletePlaylist(cmd.Context(), args[0]); err != nil {
				return err
			}
			logging.S("Deleted playlist %q", args[0])
			return nil
		},
	}
}
