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
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-orders/internal/config"
	"ms-orders/internal/database/migrations"
	"ms-orders/internal/gateway/catalog"
	"ms-orders/internal/gateway/notify"
	"ms-orders/internal/gateway/payment"
	"ms-orders/internal/gateway/seating"
	"ms-orders/internal/kafka"
	"ms-orders/internal/logger"
	"ms-orders/internal/order"
	"ms-orders/internal/order/db"
	"ms-orders/internal/order/order_api"
	rediswrap "ms-orders/internal/order/redis"
	"ms-orders/internal/tickets"
	"ms-orders/internal/tickets/qr"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Order Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.RunMigrations(); err != nil {
		log.Warn("DATABASE", fmt.Sprintf("Migrations failed, falling back to model-based schema: %v", err))
		if err := db.CreateTables(ctx, bunDB); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Schema setup failed: %v", err))
		}
	}

	var producer *kafka.Producer
	var publisher order.EventPublisher
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		publisher = producer
		requiredTopics := []string{
			cfg.Kafka.Topics.OrderCreated,
			cfg.Kafka.Topics.OrderConfirmed,
			cfg.Kafka.Topics.OrderFailed,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		defer producer.Close()
	} else {
		log.Warn("KAFKA", "Kafka disabled, order events will not be published")
	}

	httpClient := &http.Client{Timeout: cfg.Services.CallTimeout}

	dbLayer := &db.DB{Bun: bunDB}
	ticketService := tickets.NewTicketService(dbLayer, qr.NewGenerator(cfg.Order.QRSecret), log)

	orderService := order.NewOrderService(
		dbLayer,
		rediswrap.NewGuard(redisClient),
		catalog.NewClient(cfg.Services.CatalogBaseURL, httpClient),
		seating.NewClient(cfg.Services.SeatingBaseURL, httpClient),
		payment.NewClient(cfg.Services.PaymentBaseURL, httpClient),
		notify.NewNotifier(cfg.Services.NotificationBaseURL, httpClient, log),
		ticketService,
		publisher,
		log,
		cfg.Order,
		cfg.Kafka.Topics,
	)

	handler := order_api.NewHandler(orderService, log)

	log.Info("HTTP", "Setting up router")
	r := chi.NewRouter()

	r.Get("/health", handler.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/orders", handler.CreateOrder)
		r.Get("/orders/{orderId}", handler.GetOrder)
		r.Post("/payments/callback", handler.PaymentCallback)
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Order Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Order Service shutdown complete")
	}
}
