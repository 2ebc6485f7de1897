package domain

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// ErrOrderExists is returned by the repository when an insert hits the
// order_id uniqueness constraint. The processor treats it as a concurrent
// duplicate delivery, not a failure.
var ErrOrderExists = errors.New("order already exists")

var ErrOrderNotFound = errors.New("order not found")

// OrderMessage is the queued unit of work. It is assembled once at intake
// and immutable afterwards; orderId doubles as the idempotency key.
type OrderMessage struct {
	OrderID     string    `json:"orderId"`
	CustomerID  string    `json:"customerId"`
	ProductID   string    `json:"productId"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unitPrice"`
	TotalAmount float64   `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Order is the persisted processing record. Exactly one row exists per
// orderId; rows are never updated after creation.
type Order struct {
	OrderID      string
	CustomerID   string
	ProductID    string
	Quantity     int
	UnitPrice    float64
	TotalAmount  float64
	CreatedAt    time.Time
	ProcessedAt  time.Time
	Status       OrderStatus
	ErrorMessage string
}

// OrderFromMessage copies the message fields verbatim into an order draft.
// TotalAmount is taken as given; it is computed once at intake and not
// re-derived here.
func OrderFromMessage(msg *OrderMessage) *Order {
	return &Order{
		OrderID:     msg.OrderID,
		CustomerID:  msg.CustomerID,
		ProductID:   msg.ProductID,
		Quantity:    msg.Quantity,
		UnitPrice:   msg.UnitPrice,
		TotalAmount: msg.TotalAmount,
		CreatedAt:   msg.CreatedAt,
		ProcessedAt: time.Now().UTC(),
	}
}
