package app

import (
	"context"
	"log/slog"

	"GTMMonitor/internal/config"
	"GTMMonitor/internal/domain"
	"GTMMonitor/internal/infrastructure/httpapi"
	"GTMMonitor/internal/infrastructure/llm"
	"GTMMonitor/internal/infrastructure/reddit"
	"GTMMonitor/internal/infrastructure/scheduler"
	"GTMMonitor/internal/infrastructure/sheets"
	"GTMMonitor/internal/infrastructure/slack"
	"GTMMonitor/internal/infrastructure/storage"
	"GTMMonitor/internal/logging"
	"GTMMonitor/internal/ports"
	"GTMMonitor/internal/usecase"
)

// Application wires configuration to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	trends    *usecase.TrendAggregator
	server    *httpapi.Server
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	var store ports.Store
	var repo *storage.PostgresRepository
	if cfg.Database.DSN != "" {
		db, err := storage.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		repo = storage.NewPostgresRepository(db)
		store = repo
	}

	var oracle ports.Oracle
	if cfg.AI.APIKey != "" {
		built, err := llm.New(cfg.AI)
		if err != nil {
			return nil, err
		}
		oracle = built
	} else {
		baseLogger.Warn("no AI api key configured, classification will use the keyword fallback")
	}

	source := reddit.NewClient(cfg.Monitoring, nil, baseLogger.With("component", "source"))

	classifier := usecase.NewClassifier(
		oracle,
		cfg.Monitoring.Keywords,
		cfg.Monitoring.RelevanceThreshold,
		baseLogger.With("component", "classifier"),
	)
	enricher := usecase.NewEnricher(oracle, baseLogger.With("component", "enricher"))

	var alertSink ports.AlertSink = slack.NewNotifier(
		cfg.Slack.WebhookURL,
		cfg.Monitoring.HighRelevanceThreshold,
		baseLogger.With("component", "slack"),
	)

	var sheetSink ports.SheetSink
	if cfg.Sheets.SheetID != "" {
		sheetSink = sheets.NewMirror(cfg.Sheets.Endpoint, cfg.Sheets.SheetID, cfg.Sheets.Token)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      source,
		Classifier:  classifier,
		Enricher:    enricher,
		Store:       store,
		AlertSink:   alertSink,
		SheetSink:   sheetSink,
		Logger:      baseLogger.With("component", "pipeline"),
		PacingDelay: cfg.Monitoring.PacingDelay(),
	})

	trends := usecase.NewTrendAggregator(store, baseLogger.With("component", "trends"))

	app := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		trends:   trends,
		server:   httpapi.New(pipeline, trends, baseLogger.With("component", "http")),
	}

	if cfg.Scheduler.PipelineCron != "" || cfg.Scheduler.TrendsCron != "" {
		driver := scheduler.NewCronScheduler(cfg.Scheduler.Location(), baseLogger.With("component", "scheduler"))
		app.scheduler = usecase.NewScheduler(driver, pipeline, trends)
	}

	if repo != nil {
		if err := repo.EnsureSchema(context.Background()); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Run seeds deduplication, starts any scheduled jobs and serves the HTTP
// trigger surface until the listener stops.
func (a *Application) Run(ctx context.Context) error {
	if err := a.pipeline.Seed(ctx); err != nil {
		a.logger.Warn("deduplication seed failed, starting with an empty set", "error", err)
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(a.cfg.Scheduler.PipelineCron, a.cfg.Scheduler.TrendsCron); err != nil {
			return err
		}
		defer func() { _ = a.scheduler.Stop(ctx) }()
	}

	return a.server.Run(a.cfg.Server.Addr)
}

// RunOnce executes a single pipeline pass and returns its summary. Used by
// the CLI one-shot mode; dry runs skip all durable writes and notifications.
func (a *Application) RunOnce(ctx context.Context, dryRun bool) (domain.RunSummary, error) {
	if !dryRun {
		if err := a.pipeline.Seed(ctx); err != nil {
			a.logger.Warn("deduplication seed failed, starting with an empty set", "error", err)
		}
	}
	return a.pipeline.Run(ctx, dryRun)
}
