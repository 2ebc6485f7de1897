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

	"orderpipeline/internal/config"
	"orderpipeline/internal/handler/http/stream"
	kafka_handler "orderpipeline/internal/handler/kafka"
	"orderpipeline/internal/infrastructure/kafka"
	"orderpipeline/internal/notifications"
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
	appLogger.Info("Notification Service starting...")

	hub := notifications.NewHub(appLogger.With(zap.String("component", "NotificationHub")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventConsumer := kafka_handler.NewOrderEventConsumer(hub,
		appLogger.With(zap.String("component", "OrderEventConsumer")))
	go func() {
		err := kafka.StartConsumer(
			ctx,
			cfg.GetKafkaBrokers(),
			cfg.KafkaOrderEventTopic,
			cfg.KafkaConsumerGroup,
			eventConsumer.HandleMessage,
			appLogger,
		)
		if err != nil {
			appLogger.Fatal("Kafka order event consumer failed", zap.Error(err))
		}
	}()
	appLogger.Info("Kafka order event consumer started!")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	stream.RegisterRoutes(r, hub, appLogger)

	// No WriteTimeout: SSE connections stay open until the client leaves.
	server := &http.Server{
		Addr:        cfg.NotifierHTTPAddr,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	appLogger.Info("Notification Service started", zap.String("address", cfg.NotifierHTTPAddr))

	<-sigChan

	appLogger.Info("Shutting down Notification Service...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Notification Service graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Notification Service stopped.")
}
