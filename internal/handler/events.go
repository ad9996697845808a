package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"transmem/internal/handler/sse"
	"transmem/internal/httputil"
)

// keepAliveInterval is how often idle event streams get a comment ping
// so proxies do not cut the connection.
const keepAliveInterval = 10 * time.Second

// EventsHandler streams post-commit segment notifications to editor
// clients over SSE.
type EventsHandler struct {
	hub    *sse.Hub
	logger *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *sse.Hub, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger}
}

// StreamProjectEvents subscribes the client to one project's
// confirmation notifications
// GET /api/projects/{id}/events
func (h *EventsHandler) StreamProjectEvents(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.hub.Subscribe(projectID)
	defer cancel()

	h.logger.Debug("event stream opened", "project_id", projectID)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("event stream closed", "project_id", projectID)
			return

		case n := <-events:
			payload, err := json.Marshal(n)
			if err != nil {
				h.logger.Error("failed to encode notification", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: segment\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()

		case <-keepAlive.C:
			// SSE comment line; clients ignore it
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
