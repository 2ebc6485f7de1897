package stream

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"orderpipeline/internal/notifications"
)

// StreamHandler serves the server-sent-events push surface: one long-lived
// connection per request, subscribed under the userId in the path. No
// server-side timeout is imposed; the stream lives until the client goes
// away or the hub drops the connection.
type StreamHandler struct {
	hub    *notifications.Hub
	logger *zap.Logger
}

func NewStreamHandler(hub *notifications.Hub, l *zap.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, logger: l}
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("Response writer does not support streaming")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	conn := h.hub.Connect(userID)
	defer h.hub.Disconnect(userID, conn)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-conn.Done():
			return
		case event := <-conn.Events():
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("Failed to serialize event for stream",
					zap.String("user_id", userID),
					zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: ORDER_CREATED\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
