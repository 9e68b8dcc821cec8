package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"playlistdl/internal/coordinator"
	"playlistdl/internal/database/repo"
	"playlistdl/internal/downloads"
	"playlistdl/internal/models"
	"playlistdl/internal/utils/logging"
	"playlistdl/internal/validation"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// startBatchRequest is the body of POST /batches. Omitted options keep the server defaults.
type startBatchRequest struct {
	PlaylistID string                  `json:"playlist_id"`
	Options    *models.DownloadOptions `json:"options,omitempty"`
}

// addDownloadRequest is the body of POST /downloads.
type addDownloadRequest struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	VideoID   string `json:"video_id"`
	Thumbnail string `json:"thumbnail"`
	Duration  int    `json:"duration"`
}

// handleListBatches lists all batches.
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.coord.Batches(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

// handleStartBatch expands a catalog playlist into a new batch.
func (s *Server) handleStartBatch(w http.ResponseWriter, r *http.Request) {
	req := startBatchRequest{}
	opts := s.coord.Defaults()
	req.Options = &opts

	if !decodeBody(w, r, &req) {
		return
	}
	if req.PlaylistID == "" {
		writeError(w, http.StatusBadRequest, "playlist_id is required")
		return
	}
	if req.Options == nil {
		req.Options = &opts
	}
	if req.Options.MaxRetries < 1 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("max_retries must be at least 1, got %d", req.Options.MaxRetries))
		return
	}
	if req.Options.MaxConcurrentDownloads < 1 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("max_concurrent_downloads must be at least 1, got %d", req.Options.MaxConcurrentDownloads))
		return
	}

	validated, err := validation.ValidateDownloadOptions(*req.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch, err := s.coord.StartBatch(r.Context(), req.PlaylistID, validated)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}

// handleClearFinished forgets finished batches and standalone downloads.
func (s *Server) handleClearFinished(w http.ResponseWriter, r *http.Request) {
	n, err := s.coord.ClearFinished(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// handleGetBatch returns a batch with its items.
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	view, err := s.coord.Batch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleRetryFailed re-queues a batch's failed items.
func (s *Server) handleRetryFailed(w http.ResponseWriter, r *http.Request) {
	n, err := s.coord.RetryFailed(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"requeued": n})
}

// handleGetItem returns one item.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.coord.Item(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleListDownloads lists standalone downloads.
func (s *Server) handleListDownloads(w http.ResponseWriter, r *http.Request) {
	items, err := s.coord.Standalone(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleAddDownload queues one video outside any batch.
func (s *Server) handleAddDownload(w http.ResponseWriter, r *http.Request) {
	var req addDownloadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	title := req.Title
	if title == "" {
		title = req.VideoID
	}

	item, err := s.coord.AddDownload(r.Context(), models.PlaylistVideo{
		ID:        req.VideoID,
		Title:     title,
		URL:       req.URL,
		Thumbnail: req.Thumbnail,
		Duration:  req.Duration,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// handleListPlaylists lists the catalog.
func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.playlists.ListPlaylists(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

// handleGetPlaylist returns a playlist with its videos.
func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.playlists.GetPlaylist(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	videos, err := s.playlists.GetPlaylistVideos(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*models.Playlist
		Videos []models.PlaylistVideo `json:"videos"`
	}{p, videos})
}

// batchAction adapts a batch control call to a handler.
func (s *Server) batchAction(fn func(ctx context.Context, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := fn(r.Context(), id); err != nil {
			writeErr(w, err)
			return
		}
		view, err := s.coord.Batch(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, view)
	}
}

// itemAction adapts an item control call to a handler.
func (s *Server) itemAction(fn func(ctx context.Context, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := fn(r.Context(), id); err != nil {
			writeErr(w, err)
			return
		}
		item, err := s.coord.Item(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, item)
	}
}

// ----------------- Helpers ----------------------------------------------------------------------------------------

// decodeBody decodes a JSON body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, coordinator.ErrUnknownBatch),
		errors.Is(err, coordinator.ErrUnknownItem),
		errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, coordinator.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, coordinator.ErrEmptyPlaylist):
		return http.StatusUnprocessableEntity
	case errors.Is(err, downloads.ErrPauseUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, coordinator.ErrStopped),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.E("Request failed: %v", err)
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.E("Failed to encode JSON response: %v", err)
	}
}
