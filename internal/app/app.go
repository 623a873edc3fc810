package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"StoryPress/internal/config"
	"StoryPress/internal/infrastructure/cache"
	"StoryPress/internal/infrastructure/llm"
	"StoryPress/internal/infrastructure/notify"
	"StoryPress/internal/infrastructure/scheduler"
	"StoryPress/internal/infrastructure/storage/memory"
	"StoryPress/internal/infrastructure/storage/postgres"
	"StoryPress/internal/logging"
	"StoryPress/internal/metrics"
	"StoryPress/internal/ports"
	"StoryPress/internal/prompt"
	"StoryPress/internal/usecase"
)

// Application wires configuration to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pool      *pgxpool.Pool
	stories   ports.StoryRepository
	schedules ports.ScheduleRepository
	weekly    ports.WeeklyScheduleRepository
	engine    *usecase.Lifecycle
	scheduler *usecase.Scheduler
	metrics   *metrics.Metrics
}

// New builds a runnable application instance. An empty database DSN falls
// back to the in-memory stores; an empty redis address disables view
// invalidation fan-out.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		metrics: metrics.New(),
	}

	loc := cfg.Scheduler.Location()

	if cfg.Database.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		a.stories = postgres.NewStoryRepository(pool)
		a.schedules = postgres.NewScheduleRepository(pool, loc)
		a.weekly = postgres.NewWeeklyRepository(pool)
	} else {
		baseLogger.Warn("no database configured, using in-memory stores")
		a.stories = memory.NewStoryStore()
		a.schedules = memory.NewScheduleStore(loc)
		a.weekly = memory.NewWeeklyStore()
	}

	var views ports.ViewInvalidator
	if cfg.Redis.Addr != "" {
		views = cache.NewRedisInvalidator(cfg.Redis)
	}

	var textGen ports.TextGenerator
	var imageGen ports.ImageGenerator
	if cfg.OpenAI.APIKey != "" {
		registry := prompt.NewRegistry()
		textGen = llm.NewTextClient(cfg.OpenAI, registry)
		imageGen = llm.NewImageClient(cfg.OpenAI)
	} else {
		baseLogger.Warn("no generation api key configured, story creation will fail")
	}

	var notifier ports.Notifier
	if cfg.Mail.Endpoint != "" {
		notifier = notify.NewMailer(cfg.Mail)
	}

	a.engine = usecase.NewLifecycle(usecase.LifecycleDeps{
		Stories:    a.stories,
		TextGen:    textGen,
		ImageGen:   imageGen,
		Notifier:   notifier,
		Views:      views,
		Metrics:    a.metrics,
		Logger:     baseLogger.With("component", "lifecycle"),
		GenTimeout: cfg.OpenAI.Timeout(),
	})

	reconciler := usecase.NewReconciler(usecase.ReconcilerDeps{
		Schedules:    a.schedules,
		Weekly:       a.weekly,
		Engine:       a.engine,
		Metrics:      a.metrics,
		Logger:       baseLogger.With("component", "reconciler"),
		Location:     loc,
		TickInterval: cfg.Scheduler.Interval(),
	})

	driver := scheduler.NewIntervalDriver(cfg.Scheduler.Interval())
	a.scheduler = usecase.NewScheduler(driver, reconciler, baseLogger.With("component", "scheduler"))

	return a, nil
}

// Run starts the reconciliation loop and blocks until the context ends.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	a.logger.Info("storypress running",
		"tick", a.cfg.Scheduler.Interval().String(),
		"timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx := context.Background()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Error("scheduler stop failed", "error", err)
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

// Engine exposes the lifecycle engine to embedding consumers (admin
// surface, mail-action handlers).
func (a *Application) Engine() *usecase.Lifecycle {
	return a.engine
}

// Stories exposes the story repository for read-side consumers.
func (a *Application) Stories() ports.StoryRepository {
	return a.stories
}

// Schedules exposes the scheduled-generation repository.
func (a *Application) Schedules() ports.ScheduleRepository {
	return a.schedules
}

// WeeklySchedules exposes the weekly-rule repository.
func (a *Application) WeeklySchedules() ports.WeeklyScheduleRepository {
	return a.weekly
}

// Metrics exposes the metrics set for exposition by the embedding process.
func (a *Application) Metrics() *metrics.Metrics {
	return a.metrics
}
