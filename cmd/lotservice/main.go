package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imbuy/marketplace/internal/application/services"
	"github.com/imbuy/marketplace/internal/bus"
	"github.com/imbuy/marketplace/internal/config"
	"github.com/imbuy/marketplace/internal/events"
	"github.com/imbuy/marketplace/internal/infrastructure/messaging"
	"github.com/imbuy/marketplace/internal/infrastructure/persistence/postgres"
	"github.com/imbuy/marketplace/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting lot service",
		"env", cfg.Primary.Env,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	lotRepo := postgres.NewLotRepository(db.Pool)

	publisher := bus.NewKafkaPublisher(cfg.Kafka.Brokers)
	defer publisher.Close()

	userClient := messaging.NewUserServiceClient(publisher, cfg.UserService, logger)
	bidClient := messaging.NewBidServiceClient(publisher, cfg.BidService, logger)
	eventPublisher := messaging.NewLotEventPublisher(publisher)

	closeService := services.NewCloseExpiredLotsService(
		lotRepo,
		bidClient,
		eventPublisher,
		cfg.Worker.PageSize,
		logger,
	)

	userReplies := bus.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		events.TopicUserResponses,
		cfg.Kafka.GroupID,
		userClient.ReplyHandler(),
		logger,
	)
	bidReplies := bus.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		events.TopicBidResponses,
		cfg.Kafka.GroupID,
		bidClient.ReplyHandler(),
		logger,
	)
	defer userReplies.Close()
	defer bidReplies.Close()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go userReplies.Run(workerCtx)
	go bidReplies.Run(workerCtx)

	scheduler := worker.NewScheduler(closeService, cfg.Worker.Interval, logger)
	go scheduler.Start(workerCtx)

	metricsServer := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Server.MetricsPort,
		Handler: promhttp.Handler(),
	}
	go func() {
		logger.Info("metrics server starting", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancelWorkers()
	if err := metricsServer.Shutdown(context.Background()); err != nil {
		logger.Error("metrics server shutdown failed", "error", err)
	}
}
