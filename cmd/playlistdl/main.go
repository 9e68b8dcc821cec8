// Package main is the entrypoint of playlistdl.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playlistdl/internal/cfg"
	"playlistdl/internal/domain/paths"
	"playlistdl/internal/utils/logging"
)

// main is the main entrypoint of the program.
func main() {
	os.Exit(run())
}

// run executes the command tree and returns the process exit code.
func run() int {
	startTime := time.Now()

	if err := paths.InitProgFilesDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "playlistdl exiting with error: %v\n", err)
		return 1
	}
	defer logging.Close()

	// Cancellable context for shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer cancel()

	// ---- INIT COMMANDS ----
	if err := cfg.InitCommands(openRuntime); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// ---- RUN PROGRAM ----
	if err := cfg.Execute(ctx); err != nil {
		logging.E("Error: %v", err)
		return 1
	}
	logging.D(1, "playlistdl finished in %s", time.Since(startTime).Round(time.Millisecond))
	return 0
}
