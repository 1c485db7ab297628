package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zoff-tech/go-orderflow/pkg/config"
	"github.com/zoff-tech/go-orderflow/pkg/consumer"
	"github.com/zoff-tech/go-orderflow/pkg/health"
	"github.com/zoff-tech/go-orderflow/pkg/idempotency"
	"github.com/zoff-tech/go-orderflow/pkg/monitor"
	"github.com/zoff-tech/go-orderflow/pkg/pipeline"
	"github.com/zoff-tech/go-orderflow/pkg/queue"
	"github.com/zoff-tech/go-orderflow/pkg/telemetry"
)

func main() {
	configPath := flag.String("config", "./cmd/order-consumer", "directory containing orderflow.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var sink telemetry.Sink = telemetry.Nop{}
	if cfg.Observability.TracingURL != "" {
		shutdownTelemetry, err := telemetry.Init(cfg.Observability)
		if err != nil {
			logger.Error("failed to initialize telemetry", "error", err)
			os.Exit(1)
		}
		defer shutdownTelemetry()
		sink = telemetry.NewOtelSink(logger)
	} else {
		logger.Warn("tracing URL not configured, telemetry disabled")
	}

	store, err := idempotency.NewStore(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to initialize idempotency store", "error", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	q, err := queue.NewQueue(ctx, cfg.Broker)
	if err != nil {
		logger.Error("failed to initialize queue", "error", err)
		os.Exit(1)
	}
	defer q.Close()

	rnd := pipeline.NewSystemRand()
	pl := pipeline.New(
		pipeline.NewSimulatedInventory(rnd, nil),
		pipeline.NewSimulatedPayment(rnd, nil),
		pipeline.NewSimulatedShipping(nil),
		sink, logger, cfg.Consumer.StageTimeout,
	)

	cons := consumer.New(store, pl, sink, logger, cfg.Consumer.MaxDeliveries)
	mon := monitor.New(q, sink, logger, cfg.Consumer.MonitorInterval, cfg.Consumer.MonitorBatch)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.Handler(cfg))
	srv := &http.Server{Addr: cfg.Consumer.ListenAddr, Handler: mux}
	go func() {
		logger.Info("serving health and metrics", "addr", cfg.Consumer.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health listener failed", "error", err)
		}
	}()

	go mon.Run(ctx)

	logger.Info("consumer started",
		"broker", cfg.Broker.Type, "store", cfg.Store.Type,
		"maxDeliveries", cfg.Consumer.MaxDeliveries)
	if err := cons.Run(ctx, q); err != nil {
		logger.Error("consumer stopped", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("health listener shutdown failed", "error", err)
	}
	logger.Info("consumer shut down")
}
