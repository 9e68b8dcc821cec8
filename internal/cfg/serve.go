package cfg

import (
	"playlistdl/internal/domain/keys"
	"playlistdl/internal/notify"
	"playlistdl/internal/server"
	"playlistdl/internal/utils/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd runs the coordinator behind the HTTP API until interrupted.
func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "serve",
		Short:       "Run the download service and HTTP API",
		Long:        "Resume the saved queue and serve the HTTP API and event stream until interrupted.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{exclusive: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts, err := downloadOptions()
			if err != nil {
				return err
			}
			urls, err := notifyURLs()
			if err != nil {
				return err
			}

			coord, stop, err := a.startCoordinator(ctx, opts)
			if err != nil {
				return err
			}
			defer stop()

			if len(urls) > 0 {
				coord.Events().Attach(ctx, notify.NewWebhook(urls))
				logging.I("Notifying %d webhook URL(s) on batch completion", len(urls))
			}

			return server.New(coord, a.store()).ListenAndServe(ctx, viper.GetString(keys.ListenAddr))
		},
	}
}
