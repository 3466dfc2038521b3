package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"

	"github.com/vancomm/gridsweeper/internal/app"
	"github.com/vancomm/gridsweeper/internal/config"
	"github.com/vancomm/gridsweeper/internal/database"
	"github.com/vancomm/gridsweeper/internal/repository"
)

func newLogger() *slog.Logger {
	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, nil)
	if config.Development() {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}

// openRepository prefers postgres when it is configured and falls back to a
// local sqlite file otherwise.
func openRepository(
	ctx context.Context, logger *slog.Logger, cfg *config.App,
) (repository.Repository, func(), error) {
	dbConfig, err := config.NewDatabase()
	if err != nil {
		return nil, nil, err
	}
	if dbConfig.Configured() {
		pool, migrator, err := database.ConnectAndMigrate(ctx, dbConfig)
		if err != nil {
			return nil, nil, err
		}
		if version, dirty, err := migrator.Version(); err == nil {
			logger.Info("database ready",
				slog.String("driver", "postgres"),
				slog.Uint64("version", uint64(version)),
				slog.Bool("dirty", dirty))
		}
		return repository.New(pool), func() {
			migrator.Close()
			pool.Close()
		}, nil
	}

	sqlite, err := repository.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("database ready",
		slog.String("driver", "sqlite"),
		slog.String("path", cfg.SQLitePath))
	return sqlite, func() {
		if err := sqlite.Close(); err != nil {
			logger.Error("failed to close sqlite", slog.Any("error", err))
		}
	}, nil
}

func main() {
	logger := newLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.NewApp()
	if err != nil {
		logger.Error("failed to read app config", slog.Any("error", err))
		os.Exit(1)
	}

	jwt, err := config.NewJWT()
	if err != nil {
		logger.Error("failed to read jwt config", slog.Any("error", err))
		os.Exit(1)
	}

	cookies, err := config.NewCookies(jwt)
	if err != nil {
		logger.Error("failed to read cookies config", slog.Any("error", err))
		os.Exit(1)
	}

	ws, err := config.NewWebSocket()
	if err != nil {
		logger.Error("failed to read ws config", slog.Any("error", err))
		os.Exit(1)
	}

	repo, closeRepo, err := openRepository(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeRepo()

	if err := app.New(logger, cfg, repo, cookies, ws).Run(ctx); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		closeRepo()
		os.Exit(1)
	}
}
