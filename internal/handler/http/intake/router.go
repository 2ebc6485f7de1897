package intake

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"orderpipeline/internal/app/intake"
)

func RegisterRoutes(r chi.Router, s intake.OrderIntake, l *zap.Logger) {
	handler := NewIntakeHandler(s, l.With(zap.String("component", "IntakeHTTPHandler")))

	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", handler.CreateOrder)
	})
}
