package orders

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"orderpipeline/internal/repository/order_repo"
)

func RegisterRoutes(r chi.Router, repo order_repo.OrderRepository, l *zap.Logger) {
	handler := NewOrderHandler(repo, l.With(zap.String("component", "OrderHTTPHandler")))

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/{orderID}", handler.GetOrder)
		r.Get("/customer/{customerID}", handler.GetOrdersByCustomer)
		r.Get("/status/{status}", handler.GetOrdersByStatus)
	})
}
