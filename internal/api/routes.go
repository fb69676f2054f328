package api

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

func SetupRoutes(app *fiber.App, handler *Handler, metricsHandler http.Handler, log *zap.Logger) {
	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())

	// Custom logger middleware
	app.Use(logger.New(logger.Config{
		Format:     "${time} ${pid} ${locals:requestid} ${status} - ${method} ${path}\n",
		TimeFormat: time.RFC3339,
	}))

	// API v1 routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", handler.GetHealth)

	// Metrics
	if metricsHandler != nil {
		api.Get("/metrics", adaptor.HTTPHandler(metricsHandler))
	}

	// Pipeline runs
	api.Get("/runs", handler.GetRuns)
	api.Post("/runs", handler.TriggerRun)

	api.Get("/locations", handler.GetLocations)

	// Stored weather data
	weather := api.Group("/weather")
	weather.Get("/", handler.ListWeather)
	weather.Get("/:city", handler.GetWeather)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		log.Debug("Endpoint not found", zap.String("path", c.Path()))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
			"path":  c.Path(),
		})
	})
}

// ErrorHandler renders handler errors as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	// Default to 500 status code
	code := fiber.StatusInternalServerError

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}
