package domain

import "time"

// OrderEvent is the read-only projection of a processed order published to
// the order-events topic, keyed by UserID so per-user ordering holds.
type OrderEvent struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Item      string    `json:"item"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func NewOrderEvent(order *Order) *OrderEvent {
	return &OrderEvent{
		OrderID:   order.OrderID,
		UserID:    order.CustomerID,
		Item:      order.ProductID,
		Quantity:  order.Quantity,
		Price:     order.UnitPrice,
		Status:    string(order.Status),
		Timestamp: order.CreatedAt,
	}
}
