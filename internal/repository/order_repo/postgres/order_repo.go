package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	"orderpipeline/internal/repository/order_repo"
)

const uniqueViolation = "23505"

type pgOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sql.DB, l *zap.Logger) order_repo.OrderRepository {
	return &pgOrderRepository{db: db, logger: l}
}

func (r *pgOrderRepository) ExistsByID(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM orders WHERE order_id = $1)`
	if err := r.db.QueryRowContext(ctx, query, orderID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check order existence", zap.String("order_id", orderID), zap.Error(err))
		return false, fmt.Errorf("failed to check order existence: %w", err)
	}
	return exists, nil
}

func (r *pgOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (order_id, customer_id, product_id, quantity, unit_price, total_amount, created_at, processed_at, status, error_message)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		order.OrderID, order.CustomerID, order.ProductID, order.Quantity,
		order.UnitPrice, order.TotalAmount, order.CreatedAt, order.ProcessedAt,
		order.Status, nullableString(order.ErrorMessage))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			// Concurrent duplicate delivery lost the insert race.
			return domain.ErrOrderExists
		}
		r.logger.Error("Failed to create order", zap.String("order_id", order.OrderID), zap.Error(err))
		return fmt.Errorf("failed to create order: %w", err)
	}
	r.logger.Debug("Order created successfully",
		zap.String("order_id", order.OrderID),
		zap.String("status", string(order.Status)))
	return nil
}

func (r *pgOrderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := selectColumns + ` WHERE order_id = $1`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		r.logger.Error("Failed to get order by ID", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to get order by ID %s: %w", orderID, err)
	}
	return order, nil
}

func (r *pgOrderRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Order, error) {
	query := selectColumns + ` WHERE customer_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		r.logger.Error("Failed to query orders for customer", zap.String("customer_id", customerID), zap.Error(err))
		return nil, fmt.Errorf("failed to get orders by customer ID %s: %w", customerID, err)
	}
	return collectOrders(rows)
}

func (r *pgOrderRepository) GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	query := selectColumns + ` WHERE status = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		r.logger.Error("Failed to query orders by status", zap.String("status", string(status)), zap.Error(err))
		return nil, fmt.Errorf("failed to get orders by status %s: %w", status, err)
	}
	return collectOrders(rows)
}

const selectColumns = `SELECT order_id, customer_id, product_id, quantity, unit_price, total_amount, created_at, processed_at, status, error_message FROM orders`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var errMsg sql.NullString
	err := row.Scan(&order.OrderID, &order.CustomerID, &order.ProductID, &order.Quantity,
		&order.UnitPrice, &order.TotalAmount, &order.CreatedAt, &order.ProcessedAt,
		&order.Status, &errMsg)
	if err != nil {
		return nil, err
	}
	order.ErrorMessage = errMsg.String
	return order, nil
}

func collectOrders(rows *sql.Rows) ([]*domain.Order, error) {
	defer rows.Close()
	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return orders, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
