// Package main provides the entry point for the palette API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/sipico/palette-api/internal/api"
	"github.com/sipico/palette-api/internal/config"
	"github.com/sipico/palette-api/internal/ledger"
	"github.com/sipico/palette-api/internal/metrics"
	"github.com/sipico/palette-api/internal/moderation"
	"github.com/sipico/palette-api/internal/palette"
	"github.com/sipico/palette-api/internal/ratelimit"
	"github.com/sipico/palette-api/internal/retention"
	"github.com/sipico/palette-api/internal/session"
	"github.com/sipico/palette-api/internal/storage"
)

const version = "0.1.0"

// shutdownTimeout bounds graceful shutdown of both listeners.
const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "palette-api",
		Short:        "Color palette sharing and voting API",
		Version:      version,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API, the metrics listener and the sweep scheduler",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Run one retention sweep and exit",
			RunE:  runSweep,
		},
	)
	return root
}

// setup loads .env and the environment, validates the result and installs
// a JSON logger whose level can be changed at runtime.
func setup() (*config.Config, *slog.Logger, *slog.LevelVar, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(parseLogLevel(cfg.LogLevel))
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	return cfg, logger, logLevel, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// server bundles the listeners and background work of a running instance.
type server struct {
	api       *http.Server
	metrics   *http.Server
	scheduler *retention.Scheduler
	logger    *slog.Logger
}

func newServer(cfg *config.Config, store storage.Storage, logger *slog.Logger, logLevel *slog.LevelVar) (*server, error) {
	adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminToken), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin token: %w", err)
	}

	reg := prometheus.NewRegistry()
	if err := metrics.Init(reg); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	sweeper := retention.NewSweeper(store, cfg.SessionIdleTTL, logger)
	scheduler, err := retention.NewScheduler(sweeper, cfg.SweepCron, logger)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(api.Deps{
		Storage:        store,
		Sessions:       session.NewRegistry(store, cfg.IPHashSalt, logger),
		Catalog:        palette.NewCatalog(store, logger),
		Ledger:         ledger.New(store, logger),
		Moderation:     moderation.NewQueue(store, logger),
		Sweeper:        sweeper,
		Limiter:        ratelimit.New(cfg.RateLimit, cfg.RateWindow),
		AdminTokenHash: adminHash,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		LogLevel:       logLevel,
		Logger:         logger,
	})

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.HandlerFor(reg))

	return &server{
		api: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handler.NewRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		metrics: &http.Server{
			Addr:              cfg.MetricsListenAddr,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		scheduler: scheduler,
		logger:    logger,
	}, nil
}

// run serves until ctx is cancelled or a listener fails, then shuts down.
func (s *server) run(ctx context.Context) error {
	stopScheduler, err := s.scheduler.Start(ctx)
	if err != nil {
		return err
	}
	defer stopScheduler()

	errCh := make(chan error, 2)
	for _, srv := range []*http.Server{s.api, s.metrics} {
		go func(srv *http.Server) {
			s.logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listener %s failed: %w", srv.Addr, err)
			}
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
	case runErr = <-errCh:
		s.logger.Error("server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range []*http.Server{s.api, s.metrics} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("graceful shutdown failed", "addr", srv.Addr, "error", err)
		}
	}
	return runErr
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, logLevel, err := setup()
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close() //nolint:errcheck

	srv, err := newServer(cfg, store, logger, logLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("palette-api starting", "version", version, "addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsListenAddr, "sweep_cron", cfg.SweepCron)
	return srv.run(ctx)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, logger, _, err := setup()
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close() //nolint:errcheck

	res, err := retention.NewSweeper(store, cfg.SessionIdleTTL, logger).Sweep(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sessions removed: %d\nvotes removed: %d\ncounters reconciled: %d\n",
		res.SessionsRemoved, res.VotesRemoved, res.CountersReconciled)
	return nil
}
