package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"orderpipeline/internal/app/processing"
	"orderpipeline/internal/audit"
	"orderpipeline/internal/config"
	"orderpipeline/internal/events"
	"orderpipeline/internal/faas"
	orders_http "orderpipeline/internal/handler/http/orders"
	rabbit_handler "orderpipeline/internal/handler/rabbitmq"
	"orderpipeline/internal/infrastructure/database"
	"orderpipeline/internal/infrastructure/kafka"
	"orderpipeline/internal/infrastructure/rabbitmq"
	postgres_order_repo "orderpipeline/internal/repository/order_repo/postgres"
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
	appLogger.Info("Order Processor starting...")

	appLogger.Info("Waiting for database to be available...")
	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.DBHost,
		Port:     cfg.DBConfig.DBPort,
		User:     cfg.DBConfig.DBUser,
		Password: cfg.DBConfig.DBPassword,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.DBSSLMode,
	}

	var db *sql.DB
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			appLogger.Info("Successfully connected to PostgreSQL database!")
			break
		}
		appLogger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}

	if db == nil {
		appLogger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		}
	}()

	appLogger.Info("Running database migrations...")
	migrateDSN := "postgres://" + cfg.GetDBMigrationConnectionString()
	m, err := migrate.New(cfg.MigrationsPath, migrateDSN)
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed successfully (or no new migrations).")

	kafkaProducer := kafka.NewProducer(cfg.GetKafkaBrokers(), appLogger)
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			appLogger.Error("Error closing Kafka producer", zap.Error(err))
		}
	}()

	orderRepository := postgres_order_repo.NewOrderRepository(db,
		appLogger.With(zap.String("component", "OrderRepository")))

	eventPublisher := events.NewPublisher(kafkaProducer, cfg.KafkaOrderEventTopic,
		appLogger.With(zap.String("component", "OrderEventPublisher")))
	faasTrigger := faas.NewTriggerPublisher(kafkaProducer, cfg.KafkaFaasTopic,
		appLogger.With(zap.String("component", "FaasTriggerPublisher")))
	auditLogger := audit.NewFunctionInvoker(cfg.AuditFunctionURL,
		appLogger.With(zap.String("component", "AuditInvoker")))

	processorLogger := appLogger.With(zap.String("component", "OrderProcessor"))
	orderProcessor := processing.NewOrderProcessor(
		orderRepository,
		&processing.SimulatedInventoryChecker{OutOfStockRate: 0.1, Logger: processorLogger},
		&processing.SimulatedPaymentProcessor{DeclineRate: 0.05, Logger: processorLogger},
		eventPublisher,
		faasTrigger,
		auditLogger,
		processorLogger,
	)

	topology := rabbitmq.Topology{
		Exchange:   cfg.RabbitExchange,
		Queue:      cfg.RabbitQueue,
		RoutingKey: cfg.RabbitRoutingKey,
	}
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, topology, cfg.ConsumerWorkers, cfg.ConsumerPrefetch,
		appLogger.With(zap.String("component", "RabbitConsumer")))
	if err != nil {
		appLogger.Fatal("Failed to create RabbitMQ consumer", zap.Error(err))
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			appLogger.Error("Error closing RabbitMQ consumer", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orderConsumer := rabbit_handler.NewOrderConsumer(orderProcessor,
		appLogger.With(zap.String("component", "OrderConsumer")))
	go func() {
		if err := consumer.Start(ctx, orderConsumer.HandleDelivery); err != nil {
			appLogger.Fatal("RabbitMQ order consumer failed", zap.Error(err))
		}
	}()
	appLogger.Info("RabbitMQ order consumer started!")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	orders_http.RegisterRoutes(r, orderRepository, appLogger)

	server := &http.Server{
		Addr:         cfg.ProcessorHTTPAddr,
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
	appLogger.Info("Order Processor started", zap.String("address", cfg.ProcessorHTTPAddr))

	<-sigChan

	appLogger.Info("Shutting down Order Processor...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Order Processor graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Order Processor stopped.")
}
