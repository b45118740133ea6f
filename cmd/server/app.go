package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-scheduler/internal/clock"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/events"
	"github.com/phrazzld/scry-scheduler/internal/reminder"
	"github.com/phrazzld/scry-scheduler/internal/service/auth"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"github.com/phrazzld/scry-scheduler/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *appDatabase
	clock  clock.Clock

	pointStore    store.ReviewPointStore
	settingsStore store.ReviewSettingsStore

	jwtService    auth.JWTService
	reviewService review.ReviewService

	eventEmitter *events.InMemoryEventEmitter

	// Due reminders; nil when disabled.
	taskQueue  *task.TaskQueue
	workerPool *task.WorkerPool
	reminders  *reminder.Scheduler
}

// newApplication creates a new application instance with all dependencies initialized.
// The database must already be open.
func newApplication(cfg *config.Config, logger *slog.Logger, db *appDatabase, clk clock.Clock) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		clock:  clk,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	defaults, err := cfg.Review.Settings()
	if err != nil {
		return nil, fmt.Errorf("invalid default review settings: %w", err)
	}

	app.pointStore, app.settingsStore = db.newStores(logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewLoggingHandler(logger))

	app.reviewService = review.NewReviewService(review.Deps{
		Points:    review.NewReviewPointRepositoryAdapter(app.pointStore, db.db),
		Settings:  review.NewSettingsRepositoryAdapter(app.settingsStore),
		Scheduler: srs.NewDefaultService(),
		Clock:     clk,
		Defaults:  defaults,
		Emitter:   app.eventEmitter,
		Logger:    logger,
	})

	if cfg.Reminder.Enabled {
		if err := app.setupReminders(); err != nil {
			return nil, err
		}
	}

	logger.Info("application initialized successfully",
		slog.String("driver", db.driver),
		slog.Bool("reminders_enabled", cfg.Reminder.Enabled))
	return app, nil
}

// setupReminders wires the due-digest pipeline: the gocron sweep emits one
// request event per learner, the task handler turns each into a DueDigestTask
// on the queue, and the worker pool executes them.
func (app *application) setupReminders() error {
	cfg := app.config.Reminder

	app.taskQueue = task.NewTaskQueue(cfg.QueueSize, app.logger)
	app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{WorkerCount: cfg.Workers}, app.logger)
	app.workerPool.SetErrorHandler(func(t task.Task, err error) {
		app.logger.Warn("due digest task failed",
			slog.String("task_id", t.ID().String()),
			slog.String("error", err.Error()))
	})

	factory := task.NewDueDigestTaskFactory(app.reviewService, app.eventEmitter, app.clock, app.logger)
	app.eventEmitter.RegisterHandler(task.NewTaskFactoryEventHandler(factory, app.taskQueue, app.logger))

	sweeper := reminder.NewSweeper(app.pointStore, app.eventEmitter, app.clock, app.logger)
	scheduler, err := reminder.NewScheduler(cfg.Schedule, sweeper, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create reminder scheduler: %w", err)
	}
	app.reminders = scheduler
	return nil
}

// start launches the background workers.
func (app *application) start() {
	if app.workerPool != nil {
		app.workerPool.Start()
	}
	if app.reminders != nil {
		app.reminders.Start()
	}
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()
	app.start()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.reminders != nil {
		app.reminders.Stop()
	}
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.workerPool != nil {
		app.workerPool.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
