package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"orderpipeline/internal/app/processing"
	"orderpipeline/internal/domain"
)

// OrderConsumer settles each delivery with a bounded-retry policy: ack on
// success, requeue on the first failure, reject to the dead-letter exchange
// once the broker marks the delivery as redelivered. At most two attempts
// reach the processor before a message is quarantined.
type OrderConsumer struct {
	processor processing.OrderProcessor
	logger    *zap.Logger
}

func NewOrderConsumer(p processing.OrderProcessor, l *zap.Logger) *OrderConsumer {
	return &OrderConsumer{processor: p, logger: l}
}

func (c *OrderConsumer) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	var msg domain.OrderMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		// A payload that does not parse will not parse on retry either;
		// let it run through the same bounded-retry path into the DLQ.
		c.logger.Error("Failed to unmarshal order message",
			zap.Uint64("delivery_tag", d.DeliveryTag),
			zap.Error(err))
		c.settleFailure(d, "")
		return
	}

	c.logger.Info("Received order message",
		zap.String("order_id", msg.OrderID),
		zap.Bool("redelivered", d.Redelivered))

	if err := c.processor.ProcessOrder(ctx, &msg); err != nil {
		c.logger.Error("Error processing order message",
			zap.String("order_id", msg.OrderID),
			zap.Error(err))
		c.settleFailure(d, msg.OrderID)
		return
	}

	if err := d.Ack(false); err != nil {
		// Undecided messages come back after the broker's redelivery
		// timeout; duplicate processing is absorbed by the orderId guard.
		c.logger.Error("Failed to acknowledge message, broker will redeliver",
			zap.String("order_id", msg.OrderID),
			zap.Error(err))
		return
	}
	c.logger.Info("Message acknowledged", zap.String("order_id", msg.OrderID))
}

func (c *OrderConsumer) settleFailure(d amqp.Delivery, orderID string) {
	if d.Redelivered {
		c.logger.Error("Message redelivered, rejecting to DLQ",
			zap.String("order_id", orderID),
			zap.Uint64("delivery_tag", d.DeliveryTag))
		if err := d.Reject(false); err != nil {
			c.logger.Error("Failed to reject message", zap.String("order_id", orderID), zap.Error(err))
		}
		return
	}

	c.logger.Warn("First failure, requeuing message",
		zap.String("order_id", orderID),
		zap.Uint64("delivery_tag", d.DeliveryTag))
	if err := d.Nack(false, true); err != nil {
		c.logger.Error("Failed to nack message", zap.String("order_id", orderID), zap.Error(err))
	}
}
