// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cleaning-booking/cmd"
	"cleaning-booking/internal/adaptor"
	"cleaning-booking/internal/cache"
	"cleaning-booking/internal/data/repository"
	"cleaning-booking/internal/gateway"
	"cleaning-booking/internal/kafka"
	"cleaning-booking/internal/pricing"
	"cleaning-booking/internal/usecase"
	"cleaning-booking/internal/wire"
	"cleaning-booking/pkg/database"
	"cleaning-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Price catalog
	catalog, err := pricing.LoadCatalog(config.Booking.PricingCatalogPath)
	if err != nil {
		logger.Fatal("Failed to load price catalog",
			zap.Error(err),
			zap.String("path", config.Booking.PricingCatalogPath))
	}

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	repos := repository.NewRepository(db, logger)

	opts := []usecase.Option{
		usecase.WithGateway(gateway.NewClient(config.Gateway, logger)),
	}

	// Reference locks are optional; the store constraints stay authoritative.
	if config.Redis.Enabled {
		redisCache := cache.NewRedisCache(config.Redis, logger)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("Redis unavailable, reconciling without reference locks", zap.Error(err))
		} else {
			defer redisCache.Close()
			opts = append(opts, usecase.WithLocker(redisCache))
			logger.Info("Redis connected", zap.String("addr", config.Redis.Addr))
		}
	}

	var queue adaptor.WebhookQueue
	var consumer *kafka.Consumer
	if config.Kafka.Enabled {
		producer := kafka.NewProducer(config.Kafka.Brokers, logger)
		defer producer.Close()
		opts = append(opts, usecase.WithEventPublisher(producer))
		queue = producer

		consumer = kafka.NewConsumer(config.Kafka.Brokers, config.Kafka.GroupID, config.Kafka.WebhookTopic, logger)
		defer consumer.Close()
	}

	// Wire all dependencies
	app := wire.Wiring(repos, config, pricing.NewCalculator(catalog), queue, logger, opts...)

	if consumer != nil {
		go func() {
			if err := cmd.WebhookWorker(ctx, consumer, app.Service.Payment, logger); err != nil {
				logger.Error("Webhook worker stopped", zap.Error(err))
			}
		}()
	}

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}
}
