package events

import (
	"encoding/json"

	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	"orderpipeline/internal/infrastructure/kafka"
)

// Publisher emits one domain event per processed order, COMPLETED and FAILED
// alike. Publication is best-effort: the persisted order is the source of
// truth and a lost event is never retried.
type Publisher interface {
	Publish(event *domain.OrderEvent)
}

type orderEventPublisher struct {
	producer kafka.Producer
	topic    string
	logger   *zap.Logger
}

func NewPublisher(producer kafka.Producer, topic string, l *zap.Logger) Publisher {
	return &orderEventPublisher{producer: producer, topic: topic, logger: l}
}

func (p *orderEventPublisher) Publish(event *domain.OrderEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize order event",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return
	}

	// Keyed by userId so per-user event order survives partitioning.
	p.producer.Produce(p.topic, []byte(event.UserID), payload)
	p.logger.Info("Published order event",
		zap.String("order_id", event.OrderID),
		zap.String("user_id", event.UserID),
		zap.String("status", event.Status))
}
