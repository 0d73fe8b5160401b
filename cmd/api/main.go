package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-plant-market.git/internal/accounts"
	"github.com/ariefcatur/go-plant-market.git/internal/catalog"
	"github.com/ariefcatur/go-plant-market.git/internal/config"
	"github.com/ariefcatur/go-plant-market.git/internal/httpx"
	"github.com/ariefcatur/go-plant-market.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-plant-market.git/internal/kafka"
	"github.com/ariefcatur/go-plant-market.git/internal/logx"
	"github.com/ariefcatur/go-plant-market.git/internal/orders"
	"github.com/ariefcatur/go-plant-market.git/internal/otelx"
	"github.com/ariefcatur/go-plant-market.git/internal/reconcile"
	"github.com/ariefcatur/go-plant-market.git/internal/redisx"
	"github.com/ariefcatur/go-plant-market.git/internal/store"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logx.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownOtel, err := otelx.Setup(ctx, cfg.OtelEndpoint, cfg.ServiceName)
	if err != nil {
		log.Error("otel setup failed, tracing disabled", zap.Error(err))
	}

	// DB
	db, closeDB, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("db connect", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer closeDB()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(ctx)

	products := catalog.NewRepo(db)
	cache := catalog.NewCache(rdb, products, cfg.ProductCacheTTL, log)
	svc := &reconcile.Service{
		Products: products,
		Reader:   cache,
		Cache:    cache,
		Ledger:   inventory.NewLedger(db),
		Orders:   orders.NewRepo(db),
		Accounts: accounts.NewRepo(db),
		Events:   kafkax.NewEmitter(prod, cfg.ServiceName),
		Log:      log,
	}

	router := httpx.NewRouter(log)
	(&httpx.Handler{
		Svc:  svc,
		Idem: &redisx.Idempotency{RDB: rdb},
		Log:  log,
	}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("db", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	prod.Close()      // tutup inbox -> flush & close writer
	prod.WaitClosed() // drain
	cancel()
	if shutdownOtel != nil {
		if err := shutdownOtel(ctx2); err != nil {
			log.Warn("otel shutdown", zap.Error(err))
		}
	}
}
