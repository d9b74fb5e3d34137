package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/imbuy/marketplace/internal/bus"
	"github.com/imbuy/marketplace/internal/config"
	"github.com/imbuy/marketplace/internal/events"
	"github.com/imbuy/marketplace/internal/infrastructure/persistence/postgres"
	"github.com/imbuy/marketplace/internal/responder"
)

// The user service's answering side: consumes user-requests, looks up the
// user row, publishes the correlated user-responses message.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting user responder", "env", cfg.Primary.Env)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	publisher := bus.NewKafkaPublisher(cfg.Kafka.Brokers)
	defer publisher.Close()

	userResponder := responder.NewUserResponder(
		postgres.NewUserRepository(db.Pool),
		publisher,
		logger,
	)

	consumer := bus.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		events.TopicUserRequests,
		"user-service",
		userResponder.Handle,
		logger,
	)
	defer consumer.Close()

	consumerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go consumer.Run(consumerCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
}
