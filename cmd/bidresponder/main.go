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

// The bid service's answering side: consumes bid-requests, resolves the
// highest bidder, publishes the correlated bid-responses message.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting bid responder", "env", cfg.Primary.Env)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	publisher := bus.NewKafkaPublisher(cfg.Kafka.Brokers)
	defer publisher.Close()

	bidResponder := responder.NewBidWinnerResponder(
		postgres.NewBidRepository(db.Pool),
		publisher,
		logger,
	)

	consumer := bus.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		events.TopicBidRequests,
		"bid-service",
		bidResponder.Handle,
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
