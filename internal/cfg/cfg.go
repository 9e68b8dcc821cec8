// Package cfg provides configuration and command-line interface setup for playlistdl.
package cfg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"playlistdl/internal/contracts"
	"playlistdl/internal/database/repo"
	"playlistdl/internal/domain/keys"
	"playlistdl/internal/domain/paths"
	"playlistdl/internal/utils/logging"
	"playlistdl/internal/validation"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// exclusive marks commands that drive the download queue and so need the queue lease.
const exclusive = "exclusive"

// Store is the storage surface the commands need.
type Store interface {
	contracts.Store
	ClearQueueSnapshot(ctx context.Context) error
	QueueHolder(ctx context.Context) (*repo.QueueHolder, error)
}

// Runtime is an opened database plus its release function.
type Runtime struct {
	Store Store
	Close func()
}

// Opener opens the database at dbPath. A non-empty holder names the command
// that must first claim the download queue lease.
type Opener func(ctx context.Context, dbPath string, holder string) (*Runtime, error)

// app carries the state shared by the command tree.
type app struct {
	open Opener
	rt   *Runtime
}

var (
	rootCmd *cobra.Command
	current *app
)

// InitCommands initializes all commands and their flags.
func InitCommands(open Opener) error {
	initEnv()

	current = &app{open: open}
	cmd, err := newRootCmd(current)
	if err != nil {
		return err
	}
	rootCmd = cmd
	return nil
}

// initEnv maps PLAYLISTDL_* environment variables onto config keys.
func initEnv() {
	viper.SetEnvPrefix("playlistdl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_")) // PLAYLISTDL_MAX_CONCURRENT -> max-concurrent
	viper.AutomaticEnv()
}

// Execute runs the command tree and releases the database afterwards.
func Execute(ctx context.Context) error {
	if rootCmd == nil {
		return errors.New("commands not initialized")
	}
	defer current.close()
	return rootCmd.ExecuteContext(ctx)
}

// newRootCmd builds the full command tree around a.
func newRootCmd(a *app) (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           "playlistdl",
		Short:         "playlistdl downloads YouTube playlists in managed batches.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfigFile(viper.GetString(keys.ConfigFile)); err != nil {
				return err
			}
			if err := logging.SetupLogging(logging.Config{
				LogFilePath: paths.LogFilePath,
				MaxSizeMB:   viper.GetInt(keys.LogMaxSize),
				MaxBackups:  viper.GetInt(keys.LogBackups),
				Program:     "playlistdl",
				Level:       validation.ValidateLoggingLevel(viper.GetInt(keys.DebugLevel)),
			}); err != nil {
				fmt.Printf("could not set up logging, proceeding without: %v\n", err)
			}
			return a.ensure(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("please specify a subcommand. Use --help to see available subcommands")
		},
	}

	if err := initProgramFlags(root); err != nil {
		return nil, err
	}
	if err := initDownloadFlags(root); err != nil {
		return nil, err
	}

	root.AddCommand(
		serveCmd(a),
		downloadCmd(a),
		playlistCmd(a),
		queueCmd(a),
	)
	return root, nil
}

// ensure opens the runtime on first use, claiming the queue lease for exclusive commands.
func (a *app) ensure(cmd *cobra.Command) error {
	if a.rt != nil {
		return nil
	}
	if a.open == nil {
		return errors.New("no database opener configured")
	}
	var holder string
	if cmd.Annotations[exclusive] == "true" {
		holder = cmd.CommandPath()
	}

	rt, err := a.open(cmd.Context(), viper.GetString(keys.DBPath), holder)
	if err != nil {
		return err
	}
	a.rt = rt
	return nil
}

// close releases the runtime, if one was opened.
func (a *app) close() {
	if a == nil || a.rt == nil {
		return
	}
	if a.rt.Close != nil {
		a.rt.Close()
	}
	a.rt = nil
}

// store returns the opened store.
func (a *app) store() Store {
	return a.rt.Store
}
