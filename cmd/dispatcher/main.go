package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-order-core/internal/config"
	kafkax "github.com/ariefcatur/go-order-core/internal/kafka"
	"github.com/ariefcatur/go-order-core/internal/logx"
	"github.com/ariefcatur/go-order-core/internal/outbox"
	"github.com/ariefcatur/go-order-core/internal/postgres"
)

// The dispatcher is the delivery half of the outbox: it drains pending event
// rows and publishes them to kafka.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := logx.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalw("db connect failed", "error", err)
	}
	defer db.Close()

	prod := kafkax.NewSyncProducer(cfg.KafkaBrokers)

	dispatcher := outbox.NewDispatcher(
		outbox.NewPostgresStorage(db),
		prod,
		logger,
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
	)

	go func() {
		logger.Infow("outbox dispatcher started",
			"interval", cfg.OutboxPollInterval.String(), "batch", cfg.OutboxBatchSize)
		if err := dispatcher.Run(ctx); err != nil {
			logger.Errorw("dispatcher exit", "error", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Infow("shutting down dispatcher")
	cancel()
	time.Sleep(500 * time.Millisecond)
	_ = prod.Close()
}
