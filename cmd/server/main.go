package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetnorm/internal/config"
	"github.com/JonMunkholm/sheetnorm/internal/core"
	"github.com/JonMunkholm/sheetnorm/internal/history"
	"github.com/JonMunkholm/sheetnorm/internal/logging"
	"github.com/JonMunkholm/sheetnorm/internal/web"
	"github.com/JonMunkholm/sheetnorm/internal/workbook"
)

func main() {
	// Load .env file if it exists; real environment variables win
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logOut := logging.Setup(cfg.Logging)
	defer logOut.Close()

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"header_strategy", cfg.Ingest.HeaderStrategy,
		"history_enabled", cfg.Database.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	if cfg.Upload.TempDir != "" {
		if err := os.MkdirAll(cfg.Upload.TempDir, 0o700); err != nil {
			slog.Error("failed to create upload temp dir", "dir", cfg.Upload.TempDir, "error", err)
			os.Exit(1)
		}
	}

	reg := core.DefaultRegistry()
	engine := core.NewEngine(reg).WithResolver(core.NewResolver(strings.ToLower(cfg.Ingest.HeaderStrategy), reg))
	svcOpts := []core.ServiceOption{
		core.WithEngine(engine),
		core.WithLimiter(core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)),
	}
	var srvOpts []web.Option

	ctx := context.Background()
	if cfg.Database.Enabled() {
		pool, err := connectDB(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store := history.New(pool)
		if err := store.Migrate(ctx); err != nil {
			slog.Error("failed to migrate history schema", "error", err)
			os.Exit(1)
		}
		svcOpts = append(svcOpts, core.WithHistory(store))
		srvOpts = append(srvOpts, web.WithHistory(store))
	}

	service := core.NewService(workbook.New(), svcOpts...)

	slog.Info("field registry loaded",
		"fields", reg.Len(),
		"required", reg.RequiredFields(),
	)

	server := web.NewServer(service, cfg, srvOpts...)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active uploads to complete (with timeout)
		if status, ok := service.UploadLimiterStatus(); ok && status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}

// connectDB opens and verifies the history connection pool.
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
