package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	handlermq "orderpipeline/internal/handler/rabbitmq"
)

type settlement struct {
	method  string
	tag     uint64
	requeue bool
}

type recordingAcknowledger struct {
	settlements chan settlement
}

func newRecordingAcknowledger() *recordingAcknowledger {
	return &recordingAcknowledger{settlements: make(chan settlement, 8)}
}

func (a *recordingAcknowledger) Ack(tag uint64, _ bool) error {
	a.settlements <- settlement{method: "ack", tag: tag}
	return nil
}

func (a *recordingAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.settlements <- settlement{method: "nack", tag: tag, requeue: requeue}
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	a.settlements <- settlement{method: "reject", tag: tag, requeue: requeue}
	return nil
}

// ctxBoundProcessor fails exactly when its context has been cancelled, the
// way repository calls do once a context is torn down.
type ctxBoundProcessor struct{}

func (ctxBoundProcessor) ProcessOrder(ctx context.Context, _ *domain.OrderMessage) error {
	return ctx.Err()
}

func orderDelivery(t *testing.T, ack amqp.Acknowledger, tag uint64, redelivered bool) amqp.Delivery {
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
		DeliveryTag:  tag,
		Redelivered:  redelivered,
		Body:         body,
	}
}

func waitForSettlement(t *testing.T, ack *recordingAcknowledger) settlement {
	t.Helper()
	select {
	case s := <-ack.settlements:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("delivery was never settled")
		return settlement{}
	}
}

// A redelivered message dequeued during shutdown must still run to
// completion and be acknowledged. If the shutdown cancellation reached the
// processor, its failure would look infrastructural and a healthy message
// would be quarantined on restart.
func TestDispatch_RedeliveredMessageCompletesUnderShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ack := newRecordingAcknowledger()
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- orderDelivery(t, ack, 42, true)
	close(deliveries)

	consumer := handlermq.NewOrderConsumer(ctxBoundProcessor{}, zap.NewNop())
	wg := dispatch(ctx, deliveries, 1, consumer.HandleDelivery, zap.NewNop())

	require.Equal(t, settlement{method: "ack", tag: 42}, waitForSettlement(t, ack))
	wg.Wait()
}

func TestDispatch_HandlerContextIsNotCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{DeliveryTag: 1}
	close(deliveries)

	seen := make(chan error, 1)
	wg := dispatch(ctx, deliveries, 1, func(ctx context.Context, _ amqp.Delivery) {
		seen <- ctx.Err()
	}, zap.NewNop())
	wg.Wait()

	require.NoError(t, <-seen)
}

func TestDispatch_WorkersDrainUntilChannelCloses(t *testing.T) {
	ack := newRecordingAcknowledger()
	deliveries := make(chan amqp.Delivery, 3)
	for tag := uint64(1); tag <= 3; tag++ {
		deliveries <- orderDelivery(t, ack, tag, false)
	}
	close(deliveries)

	consumer := handlermq.NewOrderConsumer(ctxBoundProcessor{}, zap.NewNop())
	wg := dispatch(context.Background(), deliveries, 2, consumer.HandleDelivery, zap.NewNop())
	wg.Wait()

	tags := map[uint64]bool{}
	for i := 0; i < 3; i++ {
		s := waitForSettlement(t, ack)
		require.Equal(t, "ack", s.method)
		tags[s.tag] = true
	}
	require.Len(t, tags, 3)
}
