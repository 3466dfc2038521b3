package main

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"github.com/vancomm/gridsweeper/internal/config"
	"github.com/vancomm/gridsweeper/internal/database"
)

func main() {
	var logger *slog.Logger
	if config.Development() {
		logger = slog.New(tint.NewHandler(os.Stderr, nil))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}

	cfg, err := config.NewDatabase()
	if err != nil {
		logger.Error("failed to read database config", slog.Any("error", err))
		os.Exit(1)
	}
	url, err := cfg.ConnString()
	if err != nil {
		logger.Error("nothing to migrate", slog.Any("error", err))
		os.Exit(1)
	}

	migrator, err := database.Migrate(url, database.Migrations)
	if err != nil {
		logger.Error("failed to migrate", slog.Any("error", err))
		os.Exit(1)
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		logger.Error("failed to check migration version", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migration successful", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
}
