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

	"github.com/zoff-tech/go-orderflow/pkg/api"
	"github.com/zoff-tech/go-orderflow/pkg/config"
	"github.com/zoff-tech/go-orderflow/pkg/queue"
	"github.com/zoff-tech/go-orderflow/pkg/telemetry"
)

func main() {
	configPath := flag.String("config", "./cmd/order-api", "directory containing orderflow.yaml")
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
	}

	q, err := queue.NewQueue(ctx, cfg.Broker)
	if err != nil {
		logger.Error("failed to initialize queue", "error", err)
		os.Exit(1)
	}
	defer q.Close()

	router := api.NewRouter(q, sink, logger, cfg)
	srv := &http.Server{Addr: cfg.API.ListenAddr, Handler: router}

	go func() {
		logger.Info("order API listening", "addr", cfg.API.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
