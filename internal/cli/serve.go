package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/api"
	"github.com/bobby-s-dev/weather-collector/internal/collector"
	"github.com/bobby-s-dev/weather-collector/internal/config"
	"github.com/bobby-s-dev/weather-collector/internal/metrics"
	"github.com/bobby-s-dev/weather-collector/internal/scheduler"
)

func newServeCommand(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled collect, load and transform pipeline with a status API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	m := metrics.New()

	store := collector.NewStore(cfg, logger)
	c, cleanup, err := collector.NewFromConfig(cfg, store, m, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	loader := &warehouseLoader{cfg: cfg, store: store, logger: logger}

	pipeline, err := scheduler.DefaultPipeline()
	if err != nil {
		return err
	}
	collected := &scheduler.CollectedDate{}
	runner, err := scheduler.NewRunner(pipeline, map[string]scheduler.TaskFunc{
		"collect":   scheduler.CollectTask(c, collected, logger),
		"load":      scheduler.LoadTask(loader, collected, time.Now, logger),
		"transform": scheduler.TransformTask(cfg.Transform.Command, cfg.Transform.Dir, logger),
	}, m, logger)
	if err != nil {
		return err
	}

	weatherScheduler := scheduler.NewScheduler(runner, cfg.Scheduler.Schedule, cfg.Scheduler.RunOnStart, logger)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          api.ErrorHandler,
		DisableStartupMessage: true,
	})

	var weather api.WeatherReader
	if store != nil {
		weather = store
	}
	handler := api.NewHandler(weatherScheduler, c, weather, logger)
	api.SetupRoutes(app, handler, m.Handler(), logger)

	if err := weatherScheduler.Start(); err != nil {
		return err
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))
		serverErr <- app.Listen(addr)
	}()

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server stopped unexpectedly", zap.Error(err))
		}
	}

	logger.Info("Shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	weatherScheduler.Stop()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}
