package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer sends keyed messages asynchronously. Delivery is best-effort:
// write completion is observed only for logging, never by the caller.
type Producer interface {
	Produce(topic string, key, value []byte)
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewProducer(brokers []string, l *zap.Logger) Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		Logger:       zap.NewStdLog(l.With(zap.String("kafka_component", "producer"))),
	}
	writer.Completion = func(messages []kafka.Message, err error) {
		if err != nil {
			l.Error("Failed to deliver Kafka messages",
				zap.Int("count", len(messages)),
				zap.Error(err))
			return
		}
		for _, m := range messages {
			l.Debug("Delivered message to topic",
				zap.String("topic", m.Topic),
				zap.String("key", string(m.Key)))
		}
	}

	l.Info("Kafka producer initialized", zap.Strings("brokers", brokers))
	return &kafkaProducer{writer: writer, logger: l}
}

// Produce enqueues the message on the writer's internal queue; the Hash
// balancer keeps all messages with the same key on one partition.
func (p *kafkaProducer) Produce(topic string, key, value []byte) {
	msg := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}
	// Async writer: WriteMessages only queues, errors surface in Completion.
	if err := p.writer.WriteMessages(context.Background(), msg); err != nil {
		p.logger.Error("Failed to enqueue message for Kafka topic",
			zap.String("topic", topic),
			zap.Error(err))
	}
}

func (p *kafkaProducer) Close() error {
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka producer", zap.Error(err))
		return err
	}
	p.logger.Info("Kafka producer closed.")
	return nil
}
