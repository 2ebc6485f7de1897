package kafka

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	"orderpipeline/internal/notifications"
)

type OrderEventConsumer struct {
	hub    *notifications.Hub
	logger *zap.Logger
}

func NewOrderEventConsumer(hub *notifications.Hub, l *zap.Logger) *OrderEventConsumer {
	return &OrderEventConsumer{hub: hub, logger: l}
}

// HandleMessage fans one domain event out to the user's live connections.
// Malformed payloads are logged and skipped so one bad event cannot wedge
// the topic.
func (c *OrderEventConsumer) HandleMessage(_ context.Context, message []byte) error {
	var event domain.OrderEvent
	if err := json.Unmarshal(message, &event); err != nil {
		c.logger.Error("Error unmarshalling order event",
			zap.Error(err),
			zap.String("raw_message", string(message)))
		return nil
	}

	c.logger.Info("Received order event",
		zap.String("order_id", event.OrderID),
		zap.String("user_id", event.UserID),
		zap.String("status", event.Status))

	c.hub.Broadcast(event.UserID, &event)
	return nil
}
