package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"orderpipeline/internal/domain"
)

// Logger records a processed order with the external audit function. The
// call is best-effort; the processing pipeline logs the returned error and
// discards it.
type Logger interface {
	LogOrder(ctx context.Context, order *domain.Order) error
}

type functionInvoker struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// NewFunctionInvoker posts audit lines to the external function service's
// logger endpoint.
func NewFunctionInvoker(url string, l *zap.Logger) Logger {
	client := resty.New().
		SetTimeout(3 * time.Second).
		SetRetryCount(0)
	return &functionInvoker{client: client, url: url, logger: l}
}

func (i *functionInvoker) LogOrder(ctx context.Context, order *domain.Order) error {
	message := fmt.Sprintf("Order Log - ID: %s, Customer: %s, Product: %s, Quantity: %d, Total: $%.2f",
		order.OrderID, order.CustomerID, order.ProductID, order.Quantity, order.TotalAmount)

	resp, err := i.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"message": message}).
		Post(i.url)
	if err != nil {
		return fmt.Errorf("failed to invoke audit function: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("audit function returned status %d", resp.StatusCode())
	}

	i.logger.Debug("Audit function invoked",
		zap.String("order_id", order.OrderID),
		zap.Int("status_code", resp.StatusCode()))
	return nil
}
