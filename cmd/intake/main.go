package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	intake_app "orderpipeline/internal/app/intake"
	"orderpipeline/internal/config"
	intake_http "orderpipeline/internal/handler/http/intake"
	"orderpipeline/internal/infrastructure/rabbitmq"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("Order Intake starting...")

	topology := rabbitmq.Topology{
		Exchange:   cfg.RabbitExchange,
		Queue:      cfg.RabbitQueue,
		RoutingKey: cfg.RabbitRoutingKey,
	}
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, topology,
		appLogger.With(zap.String("component", "RabbitPublisher")))
	if err != nil {
		appLogger.Fatal("Failed to create RabbitMQ publisher", zap.Error(err))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			appLogger.Error("Error closing RabbitMQ publisher", zap.Error(err))
		}
	}()

	intakeService := intake_app.NewOrderIntake(publisher,
		appLogger.With(zap.String("component", "OrderIntake")))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	intake_http.RegisterRoutes(r, intakeService, appLogger)

	server := &http.Server{
		Addr:         cfg.IntakeHTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	appLogger.Info("Order Intake started", zap.String("address", cfg.IntakeHTTPAddr))

	<-sigChan

	appLogger.Info("Shutting down Order Intake...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Order Intake graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Order Intake stopped.")
}
