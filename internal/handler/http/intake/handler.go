package intake

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"orderpipeline/internal/app/intake"
)

type IntakeHandler struct {
	service intake.OrderIntake
	logger  *zap.Logger
}

func NewIntakeHandler(s intake.OrderIntake, l *zap.Logger) *IntakeHandler {
	return &IntakeHandler{service: s, logger: l}
}

func (h *IntakeHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req intake.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CreateOrder", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.logger.Info("Received order request",
		zap.String("customer_id", req.CustomerID),
		zap.String("product_id", req.ProductID))

	res, err := h.service.SubmitOrder(r.Context(), &req)
	if err != nil {
		if errors.Is(err, intake.ErrInvalidOrder) {
			h.logger.Warn("Bad request for CreateOrder", zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Error submitting order", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(res)
}
