package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
	Close() error
}

type rabbitPublisher struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

func NewPublisher(url string, t Topology, l *zap.Logger) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := Declare(ch, t); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	l.Info("RabbitMQ publisher initialized",
		zap.String("exchange", t.Exchange),
		zap.String("routing_key", t.RoutingKey))

	return &rabbitPublisher{
		conn:       conn,
		ch:         ch,
		exchange:   t.Exchange,
		routingKey: t.RoutingKey,
		logger:     l,
	}, nil
}

func (p *rabbitPublisher) Publish(ctx context.Context, body []byte) error {
	err := p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		p.logger.Error("Failed to publish message",
			zap.String("exchange", p.exchange),
			zap.String("routing_key", p.routingKey),
			zap.Error(err))
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (p *rabbitPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.logger.Error("Failed to close RabbitMQ channel", zap.Error(err))
	}
	if err := p.conn.Close(); err != nil {
		p.logger.Error("Failed to close RabbitMQ connection", zap.Error(err))
		return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
	}
	p.logger.Info("RabbitMQ publisher closed.")
	return nil
}
