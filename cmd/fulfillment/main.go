package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-plant-market.git/internal/config"
	"github.com/ariefcatur/go-plant-market.git/internal/fulfillment"
	kafkax "github.com/ariefcatur/go-plant-market.git/internal/kafka"
	"github.com/ariefcatur/go-plant-market.git/internal/logx"
	"github.com/ariefcatur/go-plant-market.git/internal/orders"
	"github.com/ariefcatur/go-plant-market.git/internal/otelx"
	"github.com/ariefcatur/go-plant-market.git/internal/redisx"
	"github.com/ariefcatur/go-plant-market.git/internal/store"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	service := cfg.ServiceName + "-fulfillment"

	log, err := logx.New(cfg.LogLevel, service)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownOtel, err := otelx.Setup(ctx, cfg.OtelEndpoint, service)
	if err != nil {
		log.Error("otel setup failed, tracing disabled", zap.Error(err))
	}

	// DB
	db, closeDB, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer closeDB()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	h := &fulfillment.Handler{
		Orders: orders.NewRepo(db),
		Redis:  rdb,
		Log:    log,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.FulfillmentGroup, orders.TopicOrderStatus, cfg.FulfillmentWorkers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("fulfillment consumer started",
			zap.String("group", cfg.FulfillmentGroup),
			zap.String("topic", orders.TopicOrderStatus),
			zap.Int("workers", cfg.FulfillmentWorkers))
		if err := cons.Start(ctx, h.HandleStatusChanged); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer")
	cancel()
	<-done

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if shutdownOtel != nil {
		_ = shutdownOtel(ctx2)
	}
}
