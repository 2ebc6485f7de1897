package processing

import (
	"context"
	"math/rand"

	"go.uber.org/zap"
)

// Simulated domain checks, standing in for calls to real inventory and
// payment services. Failure rates are configurable so local runs exercise
// both pipeline outcomes.

type SimulatedInventoryChecker struct {
	// OutOfStockRate is the probability in [0,1) that a check reports the
	// product unavailable.
	OutOfStockRate float64
	Logger         *zap.Logger
}

func (c *SimulatedInventoryChecker) CheckInventory(_ context.Context, productID string, quantity int) (bool, error) {
	c.Logger.Debug("Checking inventory",
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))
	return rand.Float64() >= c.OutOfStockRate, nil
}

type SimulatedPaymentProcessor struct {
	// DeclineRate is the probability in [0,1) that a payment is declined.
	DeclineRate float64
	Logger      *zap.Logger
}

func (p *SimulatedPaymentProcessor) ProcessPayment(_ context.Context, customerID string, amount float64) (bool, error) {
	p.Logger.Debug("Processing payment",
		zap.String("customer_id", customerID),
		zap.Float64("amount", amount))
	return rand.Float64() >= p.DeclineRate, nil
}
