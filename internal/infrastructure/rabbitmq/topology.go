package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Quarantine destinations for messages that exhausted the bounded-retry
// policy: the work queue dead-letters into the DLX, which routes to the DLQ.
const (
	DeadLetterExchange   = "orders.dlx"
	DeadLetterQueue      = "orders.dlq"
	DeadLetterRoutingKey = "order.failed"
)

type Topology struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

// Declare sets up the order exchange, the durable work queue wired to the
// dead-letter exchange, and the quarantine queue. Declaration is idempotent,
// so both the intake publisher and the processor run it on startup.
func Declare(ch *amqp.Channel, t Topology) error {
	if err := ch.ExchangeDeclare(t.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", t.Exchange, err)
	}

	if err := ch.ExchangeDeclare(DeadLetterExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead-letter exchange: %w", err)
	}

	dlq, err := ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare dead-letter queue: %w", err)
	}
	if err := ch.QueueBind(dlq.Name, DeadLetterRoutingKey, DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind dead-letter queue: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    DeadLetterExchange,
		"x-dead-letter-routing-key": DeadLetterRoutingKey,
	}
	q, err := ch.QueueDeclare(t.Queue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", t.Queue, err)
	}
	if err := ch.QueueBind(q.Name, t.RoutingKey, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", t.Queue, err)
	}

	return nil
}
