package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"playlistdl/internal/events"
	"playlistdl/internal/utils/logging"
)

const sseKeepAlive = 15 * time.Second

// handleEvents streams coordinator events as Server-Sent Events.
//
// An optional ?batch= query restricts the stream to one batch.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	batchFilter := r.URL.Query().Get("batch")

	ch, cancel := s.coord.Events().Subscribe(events.DefaultBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case ev, ok := <-ch:
			if !ok {
				return
			}
			if batchFilter != "" && ev.BatchID != batchFilter {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logging.E("Failed to encode event: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
