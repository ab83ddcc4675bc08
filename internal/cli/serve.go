package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/auge/internal/adapters/http/api"
	"github.com/okian/auge/internal/adapters/http/swagger"
	"github.com/okian/auge/internal/adapters/scheduler"
	"github.com/okian/auge/internal/app"
	"github.com/okian/auge/internal/config"
	"github.com/okian/auge/pkg/logger"
	"github.com/okian/auge/pkg/metrics"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// NewServeCommand creates the serve command.
func NewServeCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Run the engine behind the HTTP API until SIGINT or SIGTERM.

Configuration is layered: defaults, then the YAML file named by AUGE_CONFIG,
then AUGE_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if err := logger.InitWithFormat(cfg.LogFormat); err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize logging", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Configure(cfg.Metrics()...)

	eng := app.New(
		app.WithLogger(log.Named("engine")),
		app.WithSettings(cfg.Engine()),
		app.WithSQLitePath(cfg.DBPath),
	)
	if err := eng.Start(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to start engine", err)
	}
	defer eng.Stop()

	sched := scheduler.New(eng,
		scheduler.WithLogger(log.Named("scheduler")),
		scheduler.WithMaintenanceSchedule(cfg.MaintenanceSchedule),
		scheduler.WithSnapshotLogSchedule(cfg.SnapshotLogSchedule),
	)
	if err := sched.Start(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to start scheduler", err)
	}
	defer sched.Stop()

	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(eng).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return WrapExitError(ExitFailure, "HTTP server failed", err)
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}
