// Package bootstrap wires configuration into the full application
// graph shared by the api, worker and intake binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/config"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/ports"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/usecase"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/ai/nebius"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/cache/fscache"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/export"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/extraction"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/notify"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/queue/nats"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/render"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/repository/postgres"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/resilience"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/storage/localfs"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue   ports.MessageQueue
	Metrics *metrics.PipelineMetrics

	IngestUC      ports.ApplicationIngestor
	ProcessUC     ports.ApplicationProcessor
	SubmissionsUC ports.SubmissionReader
	ReviewUC      ports.DraftReviewer
	ExportUC      ports.RegisterExporter
	MaintenanceUC ports.CacheMaintainer

	closeFn func()
}

// New builds the application graph. The service name labels the
// Prometheus metrics so api and worker scrapes stay distinguishable.
func New(ctx context.Context, cfg config.Config, service string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	submissions := postgres.NewSubmissionRepository(db)
	if err := submissions.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure submissions schema: %w", err)
	}
	drafts := postgres.NewDraftRepository(db)
	if err := drafts.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure drafts schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	pipelineMetrics := metrics.NewPipelineMetrics(service)

	resilienceCfg := resilience.DefaultConfig()
	resilienceCfg.LimiterRatePerSec = cfg.AICallRatePerSec
	resilienceCfg.LimiterBurst = cfg.AICallBurst
	executor := resilience.NewExecutor(resilienceCfg)

	model := nebius.NewWithOptions(cfg.NebiusBaseURL, cfg.NebiusAPIKey, cfg.NebiusTextModel, cfg.NebiusVisionModel, nebius.Options{
		Timeout:            time.Duration(cfg.NebiusTimeoutSeconds) * time.Second,
		MaxTokens:          cfg.NebiusMaxTokens,
		ResilienceExecutor: executor,
	})

	cache, err := fscache.New(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("init extraction cache: %w", err)
	}

	extractor := extraction.NewWithOptions(model, cache, extraction.Options{
		Stats:  pipelineMetrics,
		Logger: logger,
	})

	renderer, err := render.New(cfg.PermitIssuer, cfg.PaymentAccountNumber)
	if err != nil {
		return nil, fmt.Errorf("init document renderer: %w", err)
	}

	var notifier ports.ClerkNotifier
	if recipients := cfg.Recipients(); len(recipients) > 0 {
		notifier = notify.NewSMTPNotifierWithOptions(cfg.SMTPAddr, cfg.SMTPFrom, recipients, logger, notify.Options{
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		})
	}

	ingestUC := usecase.NewIngestApplicationUseCase(submissions, storage, queue)
	processUC := usecase.NewProcessApplicationUseCase(submissions, drafts, storage, extractor, renderer, usecase.ProcessOptions{
		Notifier:        notifier,
		Logger:          logger,
		Stats:           pipelineMetrics,
		RateCZKPerM2Day: cfg.FeeRateCZKPerM2Day,
	})
	submissionsUC := usecase.NewSubmissionQueryUseCase(submissions)
	reviewUC := usecase.NewReviewDraftUseCase(drafts)
	exportUC := usecase.NewExportRegisterUseCase(drafts, export.NewRegisterWriter())
	maintenanceUC := usecase.NewMaintenanceUseCase(cache)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Queue:   queue,
		Metrics: pipelineMetrics,

		IngestUC:      ingestUC,
		ProcessUC:     processUC,
		SubmissionsUC: submissionsUC,
		ReviewUC:      reviewUC,
		ExportUC:      exportUC,
		MaintenanceUC: maintenanceUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
