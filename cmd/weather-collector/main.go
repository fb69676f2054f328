package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/cli"
	"github.com/bobby-s-dev/weather-collector/internal/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	zap.ReplaceGlobals(logger)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.LogLevel != "info" {
		logger = newLogger(cfg.LogLevel, logger)
		zap.ReplaceGlobals(logger)
	}
	defer logger.Sync()

	if err := cli.New(cfg, logger).ExecuteContext(context.Background()); err != nil {
		logger.Error("Command failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newLogger(level string, fallback *zap.Logger) *zap.Logger {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fallback
	}

	zapConfig := zap.NewProductionConfig()
	if atomicLevel.Level() == zap.DebugLevel {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = atomicLevel

	logger, err := zapConfig.Build()
	if err != nil {
		return fallback
	}
	return logger
}
