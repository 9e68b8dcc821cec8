// Package server exposes the download coordinator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"playlistdl/internal/contracts"
	"playlistdl/internal/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultAddr is the default listen address.
const DefaultAddr = ":8827"

const shutdownTimeout = 10 * time.Second

// Server holds the handler dependencies.
type Server struct {
	coord     contracts.Coordinator
	playlists contracts.PlaylistStore
}

// New returns a server for the given coordinator and playlist catalog.
func New(coord contracts.Coordinator, playlists contracts.PlaylistStore) *Server {
	return &Server{coord: coord, playlists: playlists}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- API Routes ---
	r.Route("/api/v1", func(r chi.Router) {
		// Batches API
		r.Route("/batches", func(r chi.Router) {
			r.Get("/", s.handleListBatches)
			r.Post("/", s.handleStartBatch)
			r.Delete("/", s.handleClearFinished)
			r.Get("/{id}", s.handleGetBatch)
			r.Post("/{id}/cancel", s.batchAction(s.coord.CancelBatch))
			r.Post("/{id}/pause", s.batchAction(s.coord.PauseBatch))
			r.Post("/{id}/resume", s.batchAction(s.coord.ResumeBatch))
			r.Post("/{id}/retry", s.handleRetryFailed)
		})

		// Items API
		r.Route("/items", func(r chi.Router) {
			r.Get("/{id}", s.handleGetItem)
			r.Post("/{id}/cancel", s.itemAction(s.coord.CancelItem))
			r.Post("/{id}/pause", s.itemAction(s.coord.PauseItem))
			r.Post("/{id}/resume", s.itemAction(s.coord.ResumeItem))
		})

		// Standalone downloads API
		r.Route("/downloads", func(r chi.Router) {
			r.Get("/", s.handleListDownloads)
			r.Post("/", s.handleAddDownload)
		})

		// Playlists API
		r.Route("/playlists", func(r chi.Router) {
			r.Get("/", s.handleListPlaylists)
			r.Get("/{id}", s.handleGetPlaylist)
		})

		// Event stream
		r.Get("/events", s.handleEvents)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.S("Web server running on http://localhost%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}
