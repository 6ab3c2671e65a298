package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/notify"
	"github.com/phrazzld/tasker-api/internal/platform/metrics"
	"github.com/phrazzld/tasker-api/internal/platform/postgres"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
	"github.com/phrazzld/tasker-api/internal/sweeper"
)

// notifySendTimeout bounds a single reminder delivery.
const notifySendTimeout = 30 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService   auth.JWTService
	userService  service.UserService
	taskService  service.TaskService
	statsService service.StatsService

	metrics    *metrics.Metrics
	emitter    *events.InMemoryEventEmitter
	dispatcher *notify.Dispatcher
	sweeper    *sweeper.Sweeper
}

// newApplication wires stores, services, and the reminder pipeline on top of
// an open database. It starts the notification workers but not the sweeper
// timer; call startBackground for that.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_hours", cfg.Auth.TokenLifetimeHours)

	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	app.userService, err = service.NewUserService(
		app.userStore,
		db,
		auth.NewBcryptVerifier(cfg.Auth.BCryptCost),
		app.jwtService,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.taskService, err = service.NewTaskService(app.taskStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.statsService, err = service.NewStatsService(app.taskStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats service: %w", err)
	}

	app.dispatcher = notify.NewDispatcher(newNotifier(cfg.Email, logger), notify.DispatcherConfig{
		QueueSize:   cfg.Notify.QueueSize,
		WorkerCount: cfg.Notify.WorkerCount,
		SendTimeout: notifySendTimeout,
	}, app.metrics, logger)
	app.dispatcher.Start()

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(notify.NewReminderHandler(app.dispatcher, logger))

	app.sweeper = sweeper.New(app.taskStore, app.emitter, sweeper.Config{
		Interval:       cfg.Sweeper.Interval(),
		ReminderWindow: cfg.Sweeper.ReminderWindow(),
	}, logger, sweeper.WithMetrics(app.metrics))

	logger.Info("Application initialized successfully")
	return app, nil
}

// newNotifier picks SMTP delivery when it is configured and falls back to
// logging reminders otherwise.
func newNotifier(cfg config.EmailConfig, logger *slog.Logger) notify.Notifier {
	if cfg.Enabled() {
		logger.Info("Reminder email enabled", "smtp_host", cfg.SMTPHost, "smtp_port", cfg.SMTPPort)
		return notify.NewEmailNotifier(cfg, logger)
	}
	logger.Warn("SMTP not configured, reminders will only be logged")
	return notify.NewLogNotifier(logger)
}

// startBackground launches the sweeper timer when it is enabled.
func (app *application) startBackground() {
	if !app.config.Sweeper.Enabled {
		app.logger.Info("Sweeper timer disabled; use POST /scheduler or the sweep command")
		return
	}
	app.sweeper.Start()
}

// Run starts the background workers and the HTTP server, and blocks until
// ctx is canceled or the server fails.
func (app *application) Run(ctx context.Context) error {
	app.startBackground()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources. The sweeper
// stops first so no new reminders are enqueued while the dispatcher drains.
func (app *application) cleanup() {
	if app.sweeper != nil {
		app.sweeper.Stop()
	}

	if app.dispatcher != nil {
		app.dispatcher.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
