package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orderpipeline/internal/domain"
)

type settlement struct {
	method  string
	tag     uint64
	requeue bool
}

type fakeAcknowledger struct {
	settlements []settlement
	err         error
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.settlements = append(a.settlements, settlement{method: "ack", tag: tag})
	return a.err
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.settlements = append(a.settlements, settlement{method: "nack", tag: tag, requeue: requeue})
	return a.err
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.settlements = append(a.settlements, settlement{method: "reject", tag: tag, requeue: requeue})
	return a.err
}

type fakeProcessor struct {
	err      error
	received []*domain.OrderMessage
}

func (p *fakeProcessor) ProcessOrder(_ context.Context, msg *domain.OrderMessage) error {
	p.received = append(p.received, msg)
	return p.err
}

func delivery(t *testing.T, ack *fakeAcknowledger, redelivered bool) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(&domain.OrderMessage{
		OrderID:     "abc-1",
		CustomerID:  "cust-9",
		ProductID:   "sku-7",
		Quantity:    3,
		UnitPrice:   10.00,
		TotalAmount: 30.00,
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  42,
		Redelivered:  redelivered,
		Body:         body,
	}
}

func TestHandleDelivery_SuccessAcks(t *testing.T) {
	ack := &fakeAcknowledger{}
	processor := &fakeProcessor{}
	consumer := NewOrderConsumer(processor, zap.NewNop())

	consumer.HandleDelivery(context.Background(), delivery(t, ack, false))

	require.Len(t, processor.received, 1)
	require.Equal(t, "abc-1", processor.received[0].OrderID)
	require.Equal(t, []settlement{{method: "ack", tag: 42}}, ack.settlements)
}

func TestHandleDelivery_SuccessAcksEvenWhenRedelivered(t *testing.T) {
	ack := &fakeAcknowledger{}
	consumer := NewOrderConsumer(&fakeProcessor{}, zap.NewNop())

	consumer.HandleDelivery(context.Background(), delivery(t, ack, true))

	require.Equal(t, []settlement{{method: "ack", tag: 42}}, ack.settlements)
}

func TestHandleDelivery_FirstFailureRequeues(t *testing.T) {
	ack := &fakeAcknowledger{}
	processor := &fakeProcessor{err: errors.New("store unreachable")}
	consumer := NewOrderConsumer(processor, zap.NewNop())

	consumer.HandleDelivery(context.Background(), delivery(t, ack, false))

	require.Equal(t, []settlement{{method: "nack", tag: 42, requeue: true}}, ack.settlements)
}

func TestHandleDelivery_RedeliveredFailureQuarantines(t *testing.T) {
	ack := &fakeAcknowledger{}
	processor := &fakeProcessor{err: errors.New("store unreachable")}
	consumer := NewOrderConsumer(processor, zap.NewNop())

	consumer.HandleDelivery(context.Background(), delivery(t, ack, true))

	require.Equal(t, []settlement{{method: "reject", tag: 42, requeue: false}}, ack.settlements)
}

func TestHandleDelivery_MalformedBodyFollowsRetryPath(t *testing.T) {
	ack := &fakeAcknowledger{}
	processor := &fakeProcessor{}
	consumer := NewOrderConsumer(processor, zap.NewNop())

	d := amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: []byte("not json")}
	consumer.HandleDelivery(context.Background(), d)

	require.Empty(t, processor.received)
	require.Equal(t, []settlement{{method: "nack", tag: 7, requeue: true}}, ack.settlements)

	d.Redelivered = true
	consumer.HandleDelivery(context.Background(), d)
	require.Equal(t, settlement{method: "reject", tag: 7, requeue: false}, ack.settlements[1])
}

func TestHandleDelivery_AckErrorLeavesMessageUnsettled(t *testing.T) {
	ack := &fakeAcknowledger{err: errors.New("channel closed")}
	consumer := NewOrderConsumer(&fakeProcessor{}, zap.NewNop())

	// Must not panic or settle a second time; the broker redelivers later.
	consumer.HandleDelivery(context.Background(), delivery(t, ack, false))
	require.Len(t, ack.settlements, 1)
}
