package processing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"orderpipeline/internal/audit"
	"orderpipeline/internal/domain"
	"orderpipeline/internal/events"
	"orderpipeline/internal/faas"
	"orderpipeline/internal/repository/order_repo"
)

// InventoryChecker reports whether the requested quantity is available.
// A false result is a business failure; an error is infrastructural.
type InventoryChecker interface {
	CheckInventory(ctx context.Context, productID string, quantity int) (bool, error)
}

// PaymentProcessor reports whether the customer's payment was authorized.
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, customerID string, amount float64) (bool, error)
}

type OrderProcessor interface {
	ProcessOrder(ctx context.Context, msg *domain.OrderMessage) error
}

type orderProcessor struct {
	orderRepo order_repo.OrderRepository
	inventory InventoryChecker
	payments  PaymentProcessor
	events    events.Publisher
	faas      faas.TriggerPublisher
	audit     audit.Logger
	logger    *zap.Logger
}

func NewOrderProcessor(
	orderRepo order_repo.OrderRepository,
	inventory InventoryChecker,
	payments PaymentProcessor,
	eventPublisher events.Publisher,
	faasTrigger faas.TriggerPublisher,
	auditLogger audit.Logger,
	logger *zap.Logger,
) OrderProcessor {
	return &orderProcessor{
		orderRepo: orderRepo,
		inventory: inventory,
		payments:  payments,
		events:    eventPublisher,
		faas:      faasTrigger,
		audit:     auditLogger,
		logger:    logger,
	}
}

// ProcessOrder runs the idempotent pipeline: duplicate guard, inventory then
// payment checks, durable persist, event publication, best-effort side
// effects. Returned errors are infrastructural and drive the queue
// consumer's retry/quarantine decision; business failures are recorded as
// FAILED orders and absorbed here.
func (p *orderProcessor) ProcessOrder(ctx context.Context, msg *domain.OrderMessage) error {
	p.logger.Info("Processing order", zap.String("order_id", msg.OrderID))

	exists, err := p.orderRepo.ExistsByID(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate order %s: %w", msg.OrderID, err)
	}
	if exists {
		p.logger.Warn("Duplicate order detected, skipping", zap.String("order_id", msg.OrderID))
		return nil
	}

	order := domain.OrderFromMessage(msg)

	if err := p.runChecks(ctx, msg); err != nil {
		if domain.IsBusinessError(err) {
			return p.recordFailedOrder(ctx, order, err)
		}
		return err
	}

	order.Status = domain.OrderStatusCompleted
	if err := p.persistAndPublish(ctx, order); err != nil {
		return err
	}

	p.sendConfirmationEmail(order)
	p.recordAuditLog(ctx, order)

	p.logger.Info("Order processed successfully", zap.String("order_id", msg.OrderID))
	return nil
}

// runChecks evaluates the domain checks in order. Payment is never reached
// when inventory already failed.
func (p *orderProcessor) runChecks(ctx context.Context, msg *domain.OrderMessage) error {
	available, err := p.inventory.CheckInventory(ctx, msg.ProductID, msg.Quantity)
	if err != nil {
		return fmt.Errorf("inventory check failed for order %s: %w", msg.OrderID, err)
	}
	if !available {
		return domain.NewInsufficientInventoryError(msg.ProductID)
	}

	authorized, err := p.payments.ProcessPayment(ctx, msg.CustomerID, msg.TotalAmount)
	if err != nil {
		return fmt.Errorf("payment processing failed for order %s: %w", msg.OrderID, err)
	}
	if !authorized {
		return domain.NewPaymentFailedError(msg.CustomerID)
	}

	return nil
}

func (p *orderProcessor) recordFailedOrder(ctx context.Context, order *domain.Order, cause error) error {
	p.logger.Error("Business failure processing order",
		zap.String("order_id", order.OrderID),
		zap.Error(cause))

	order.Status = domain.OrderStatusFailed
	order.ErrorMessage = cause.Error()
	return p.persistAndPublish(ctx, order)
}

// persistAndPublish commits the order, then emits its domain event. The
// order matters: a store failure must suppress the event, and a lost insert
// race means another delivery already published, so this one stays silent.
func (p *orderProcessor) persistAndPublish(ctx context.Context, order *domain.Order) error {
	if err := p.orderRepo.Create(ctx, order); err != nil {
		if errors.Is(err, domain.ErrOrderExists) {
			p.logger.Warn("Concurrent duplicate detected on insert, skipping",
				zap.String("order_id", order.OrderID))
			return nil
		}
		return fmt.Errorf("failed to persist order %s: %w", order.OrderID, err)
	}

	p.events.Publish(domain.NewOrderEvent(order))
	return nil
}

func (p *orderProcessor) sendConfirmationEmail(order *domain.Order) {
	err := p.faas.TriggerEmail(
		order.CustomerID,
		"Order Confirmation - "+order.OrderID,
		fmt.Sprintf("Your order has been processed successfully. Total: $%.2f", order.TotalAmount),
	)
	if err != nil {
		p.logger.Error("Failed to trigger confirmation email",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}
}

func (p *orderProcessor) recordAuditLog(ctx context.Context, order *domain.Order) {
	if err := p.audit.LogOrder(ctx, order); err != nil {
		p.logger.Error("Failed to invoke audit logger",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}
}
