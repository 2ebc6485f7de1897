package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageHandler func(ctx context.Context, message []byte) error

// StartConsumer reads the topic until ctx is cancelled. Offsets are
// committed only after the handler returns nil, so an unhandled message is
// redelivered after a restart.
func StartConsumer(ctx context.Context, brokers []string, topic, groupID string, handler MessageHandler, l *zap.Logger) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		Logger:   zap.NewStdLog(l.With(zap.String("kafka_component", "consumer"))),
	})
	defer func() {
		if err := reader.Close(); err != nil {
			l.Error("Failed to close Kafka consumer", zap.Error(err))
		}
	}()

	l.Info("Kafka consumer started",
		zap.String("topic", topic),
		zap.String("group_id", groupID),
		zap.Strings("brokers", brokers))

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				l.Info("Kafka consumer stopping", zap.String("topic", topic))
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		if err := handler(ctx, m.Value); err != nil {
			l.Error("Error handling Kafka message",
				zap.String("topic", m.Topic),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
			continue
		}

		if err := reader.CommitMessages(ctx, m); err != nil {
			l.Error("Failed to commit offset for message",
				zap.String("topic", m.Topic),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
		}
	}
}
