package stream

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"orderpipeline/internal/notifications"
)

func RegisterRoutes(r chi.Router, hub *notifications.Hub, l *zap.Logger) {
	handler := NewStreamHandler(hub, l.With(zap.String("component", "StreamHandler")))

	r.Get("/api/notifications/stream/{userID}", handler.Stream)
}
