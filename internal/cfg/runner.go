package cfg

import (
	"context"
	"fmt"

	"playlistdl/internal/coordinator"
	"playlistdl/internal/domain/keys"
	"playlistdl/internal/downloads"
	"playlistdl/internal/events"
	"playlistdl/internal/metadata"
	"playlistdl/internal/models"
	"playlistdl/internal/notify"
	"playlistdl/internal/utils/logging"

	"github.com/spf13/viper"
)

// newExecutor builds the process executor. Replaced in tests.
var newExecutor = func() downloads.Executor {
	return downloads.NewYTDLP(viper.GetString(keys.YTDLPPath))
}

// startCoordinator restores the saved queue and runs a coordinator until the returned stop is called.
//
// Stop cancels the loop and waits for it to persist its final snapshot.
func (a *app) startCoordinator(ctx context.Context, defaults models.DownloadOptions) (*coordinator.Coordinator, func(), error) {
	coord := coordinator.New(coordinator.Config{
		Executor: newExecutor(),
		Provider: a.store(),
		Store:    a.store(),
		Emitter:  events.NewEmitter(),
		Defaults: defaults,
	})
	if err := coord.Restore(ctx); err != nil {
		return nil, nil, fmt.Errorf("could not restore download queue: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	coord.Events().Attach(runCtx, notify.LogSink{})

	go func() {
		if err := coord.Run(runCtx); err != nil {
			logging.E("Coordinator stopped: %v", err)
		}
	}()

	stop := func() {
		cancel()
		<-coord.Done()
	}
	return coord, stop, nil
}

// importPlaylist fetches a playlist's metadata and stores it in the catalog, returning its id.
func (a *app) importPlaylist(ctx context.Context, ref string) (*metadata.Result, error) {
	id, err := metadata.PlaylistIDFromURL(ref)
	if err != nil {
		return nil, err
	}

	fetcher, err := metadata.New(
		viper.GetString(keys.MetaBackend),
		viper.GetString(keys.YTDLPPath),
		viper.GetDuration(keys.MetaTimeout),
	)
	if err != nil {
		return nil, err
	}

	logging.I("Fetching metadata for playlist %q...", id)
	res, err := fetcher.FetchPlaylist(ctx, metadata.PlaylistURL(id))
	if err != nil {
		return nil, err
	}
	if res.Playlist.ID == "" {
		res.Playlist.ID = id
	}

	if err := a.store().AddPlaylist(ctx, &res.Playlist); err != nil {
		return nil, err
	}
	if err := a.store().ReplacePlaylistVideos(ctx, res.Playlist.ID, res.Videos); err != nil {
		return nil, err
	}
	logging.S("Imported playlist %q (%s) with %d videos", res.Playlist.Title, res.Playlist.ID, len(res.Videos))
	return res, nil
}
