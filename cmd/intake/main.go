package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/bootstrap"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/config"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/intake"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("intake", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "intake", logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	watcher, err := intake.NewWithOptions(cfg.IntakeInboxDir, app.IngestUC, logger, intake.Options{
		Debounce:    time.Duration(cfg.IntakeDebounceMs) * time.Millisecond,
		InitialScan: true,
	})
	if err != nil {
		log.Fatalf("intake watcher error: %v", err)
	}

	logger.Info("intake watching", "inbox", cfg.IntakeInboxDir)
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("intake run error: %v", err)
	}
}
