package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orderpipeline/internal/domain"
)

var ErrInvalidOrder = errors.New("invalid order data")

type CreateOrderRequest struct {
	CustomerID string  `json:"customerId"`
	ProductID  string  `json:"productId"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
}

type CreateOrderResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// QueuePublisher is the durable queue the intake hands orders to.
type QueuePublisher interface {
	Publish(ctx context.Context, body []byte) error
}

type OrderIntake interface {
	SubmitOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error)
}

type orderIntake struct {
	publisher QueuePublisher
	logger    *zap.Logger
}

func NewOrderIntake(publisher QueuePublisher, logger *zap.Logger) OrderIntake {
	return &orderIntake{publisher: publisher, logger: logger}
}

// SubmitOrder assigns the order its identity, computes the total once and
// enqueues the immutable message. The submitter only ever learns that the
// order was accepted; every later outcome travels the async event channel.
func (s *orderIntake) SubmitOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	if req.CustomerID == "" || req.ProductID == "" || req.Quantity <= 0 || req.UnitPrice < 0 {
		return nil, ErrInvalidOrder
	}

	msg := &domain.OrderMessage{
		OrderID:     uuid.NewString(),
		CustomerID:  req.CustomerID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		TotalAmount: req.UnitPrice * float64(req.Quantity),
		CreatedAt:   time.Now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize order message: %w", err)
	}

	if err := s.publisher.Publish(ctx, body); err != nil {
		s.logger.Error("Failed to publish order",
			zap.String("order_id", msg.OrderID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to publish order to message queue: %w", err)
	}

	s.logger.Info("Order published successfully",
		zap.String("order_id", msg.OrderID),
		zap.String("customer_id", msg.CustomerID))

	return &CreateOrderResponse{
		OrderID: msg.OrderID,
		Status:  "PENDING",
		Message: "Order received and queued for processing",
	}, nil
}
