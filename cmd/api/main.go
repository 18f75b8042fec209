package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ariefcatur/go-order-core/internal/config"
	"github.com/ariefcatur/go-order-core/internal/customers"
	"github.com/ariefcatur/go-order-core/internal/httpx"
	kafkax "github.com/ariefcatur/go-order-core/internal/kafka"
	"github.com/ariefcatur/go-order-core/internal/logx"
	"github.com/ariefcatur/go-order-core/internal/metrics"
	"github.com/ariefcatur/go-order-core/internal/orders"
	"github.com/ariefcatur/go-order-core/internal/outbox"
	"github.com/ariefcatur/go-order-core/internal/postgres"
	"github.com/ariefcatur/go-order-core/internal/redisx"
)

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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalw("db connect failed", "error", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (direct sink only; the outbox sink delivers through the
	// dispatcher binary instead)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger)
	prod.Start(ctx)

	// Event bus, selected at composition time
	var bus orders.EventBus
	switch cfg.EventSink {
	case "kafka":
		bus = kafkax.NewBus(prod, cfg.ServiceName)
	default:
		bus = outbox.NewBus(outbox.NewPostgresStorage(db), cfg.ServiceName)
	}

	repo := orders.NewPostgresRepository(db)
	directory := customers.NewDirectory(db, rdb, logger)
	uow := postgres.NewUnitOfWork(db)

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer, "api")
	router := httpx.NewRouter(httpMetrics)
	oh := &httpx.OrdersHandler{
		Repo:  repo,
		Place: orders.NewPlaceOrderHandler(repo, directory, bus, uow, logger),
		Get:   orders.NewGetOrderHandler(repo, logger),
		Bus:   bus,
		UoW:   uow,
		Redis: rdb,
		Log:   logger,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Infow("http listening", "addr", cfg.HTTPAddr, "event_sink", cfg.EventSink)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("listen failed", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Infow("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
