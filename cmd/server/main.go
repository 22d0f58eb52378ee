package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/deliverly/order-api/internal/adapter/client"
	"github.com/deliverly/order-api/internal/adapter/events"
	"github.com/deliverly/order-api/internal/adapter/handler"
	"github.com/deliverly/order-api/internal/adapter/storage"
	"github.com/deliverly/order-api/internal/config"
	"github.com/deliverly/order-api/internal/core/service"
	"github.com/deliverly/order-api/internal/metrics"
	"github.com/deliverly/order-api/internal/port"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Error("failed to open mysql", "error", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping mysql", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to redis")

	// Initialize adapters
	orderStore := storage.NewMySQLAdapter(db)
	cache := storage.NewRedisAdapter(rdb)
	httpClient := &http.Client{Timeout: cfg.ClientTimeout}
	stockClient := client.NewStockHTTPClient(cfg.StockServiceURL, httpClient)
	deliveryClient := client.NewDeliveryHTTPClient(cfg.DeliveryServiceURL, httpClient)

	var publisher port.EventPublisher = events.NoopPublisher{}
	var kafkaPublisher *events.KafkaPublisher
	if cfg.KafkaBrokers != "" {
		kafkaPublisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = kafkaPublisher
		logger.Info("kafka publisher enabled", "topic", cfg.KafkaTopic)
	}

	m := metrics.New()

	// Initialize service
	orderService := service.NewOrderService(service.Config{
		Orders:   orderStore,
		Stock:    stockClient,
		Delivery: deliveryClient,
		Cache:    cache,
		Events:   publisher,
		Metrics:  m,
		Logger:   logger,
	})

	// Start retry sweep for orders stuck in PENDING_DELIVERY
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(cfg.RetryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepCtx, sweepCancel := context.WithTimeout(ctx, cfg.RetryInterval)
				recovered, err := orderService.RetryPendingDeliveries(sweepCtx)
				sweepCancel()
				if err != nil {
					logger.Error("retry sweep failed", "error", err)
				} else if recovered > 0 {
					logger.Info("retry sweep recovered deliveries", "count", recovered)
				}
			}
		}
	}()
	logger.Info("retry sweep started", "interval", cfg.RetryInterval)

	// Initialize HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	httpHandler := handler.NewHTTPHandler(orderService)
	httpHandler.RegisterRoutes(router, m.Handler())

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	cancel()
	wg.Wait()
	logger.Info("retry sweep stopped")

	if kafkaPublisher != nil {
		kafkaPublisher.Close()
	}
	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}
