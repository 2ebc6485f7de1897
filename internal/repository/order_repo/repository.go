package order_repo

import (
	"context"

	"orderpipeline/internal/domain"
)

type OrderRepository interface {
	// ExistsByID is the fast-path duplicate guard. It is not race-free on
	// its own; Create enforces uniqueness atomically.
	ExistsByID(ctx context.Context, orderID string) (bool, error)
	// Create inserts the order. Returns domain.ErrOrderExists when another
	// delivery of the same orderId won the insert.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Order, error)
	GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error)
}
