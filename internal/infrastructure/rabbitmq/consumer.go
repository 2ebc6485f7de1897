package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DeliveryHandler processes one delivery and settles it (ack, nack or
// reject). The consumer never settles on the handler's behalf.
type DeliveryHandler func(ctx context.Context, d amqp.Delivery)

type Consumer struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	workers int
	logger  *zap.Logger
}

func NewConsumer(url string, t Topology, workers, prefetch int, l *zap.Logger) (*Consumer, error) {
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

	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	if workers <= 0 {
		workers = 1
	}

	l.Info("RabbitMQ consumer initialized",
		zap.String("queue", t.Queue),
		zap.Int("workers", workers),
		zap.Int("prefetch", prefetch))

	return &Consumer{conn: conn, ch: ch, queue: t.Queue, workers: workers, logger: l}, nil
}

// Start consumes the queue with a pool of workers until ctx is cancelled or
// the broker closes the delivery channel. Distinct orders carry no ordering
// requirement, so deliveries are spread across workers freely.
func (c *Consumer) Start(ctx context.Context, handler DeliveryHandler) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	wg := dispatch(ctx, deliveries, c.workers, handler, c.logger)

	<-ctx.Done()
	if err := c.ch.Close(); err != nil {
		c.logger.Error("Failed to close consumer channel", zap.Error(err))
	}
	wg.Wait()
	return nil
}

// dispatch fans deliveries out to the worker pool. Handlers run on a
// context detached from ctx's cancellation: once dequeued, a message runs
// to completion and shutdown only stops the feed, via channel close. A
// processing failure during restart must not look infrastructural and
// quarantine a healthy message.
func dispatch(ctx context.Context, deliveries <-chan amqp.Delivery, workers int, handler DeliveryHandler, logger *zap.Logger) *sync.WaitGroup {
	workCtx := context.WithoutCancel(ctx)

	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for d := range deliveries {
				handler(workCtx, d)
			}
			logger.Debug("Consumer worker stopped", zap.Int("worker", id))
		}(i)
	}
	return wg
}

func (c *Consumer) Close() error {
	if err := c.conn.Close(); err != nil {
		c.logger.Error("Failed to close RabbitMQ connection", zap.Error(err))
		return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
	}
	c.logger.Info("RabbitMQ consumer closed.")
	return nil
}
