package orders

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"orderpipeline/internal/domain"
	"orderpipeline/internal/repository/order_repo"
)

// OrderHandler serves the read paths over processed orders.
type OrderHandler struct {
	orderRepo order_repo.OrderRepository
	logger    *zap.Logger
}

func NewOrderHandler(repo order_repo.OrderRepository, l *zap.Logger) *OrderHandler {
	return &OrderHandler{orderRepo: repo, logger: l}
}

type orderResponse struct {
	OrderID      string  `json:"orderId"`
	CustomerID   string  `json:"customerId"`
	ProductID    string  `json:"productId"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	TotalAmount  float64 `json:"totalAmount"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	order, err := h.orderRepo.GetByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			h.logger.Info("Order not found", zap.String("order_id", orderID))
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error getting order", zap.String("order_id", orderID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, mapOrder(order))
}

func (h *OrderHandler) GetOrdersByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	if customerID == "" {
		http.Error(w, "Customer ID is required", http.StatusBadRequest)
		return
	}

	orders, err := h.orderRepo.GetByCustomerID(r.Context(), customerID)
	if err != nil {
		h.logger.Error("Error getting orders for customer", zap.String("customer_id", customerID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, mapOrders(orders))
}

func (h *OrderHandler) GetOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(chi.URLParam(r, "status"))
	if status != domain.OrderStatusCompleted && status != domain.OrderStatusFailed {
		http.Error(w, "Unknown order status", http.StatusBadRequest)
		return
	}

	orders, err := h.orderRepo.GetByStatus(r.Context(), status)
	if err != nil {
		h.logger.Error("Error getting orders by status", zap.String("status", string(status)), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, mapOrders(orders))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func mapOrder(order *domain.Order) *orderResponse {
	return &orderResponse{
		OrderID:      order.OrderID,
		CustomerID:   order.CustomerID,
		ProductID:    order.ProductID,
		Quantity:     order.Quantity,
		UnitPrice:    order.UnitPrice,
		TotalAmount:  order.TotalAmount,
		Status:       string(order.Status),
		ErrorMessage: order.ErrorMessage,
	}
}

func mapOrders(orders []*domain.Order) []*orderResponse {
	responses := make([]*orderResponse, len(orders))
	for i, order := range orders {
		responses[i] = mapOrder(order)
	}
	return responses
}
