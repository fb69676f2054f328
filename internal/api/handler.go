package api

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/collector"
	"github.com/bobby-s-dev/weather-collector/internal/models"
	"github.com/bobby-s-dev/weather-collector/internal/scheduler"
	"github.com/bobby-s-dev/weather-collector/internal/storage"
)

type LocationLister interface {
	Locations(locationsFile string) ([]models.Location, collector.LocationSource)
}

// WeatherReader reads persisted records. It is nil when storage is disabled.
type WeatherReader interface {
	GetWeather(ctx context.Context, city, date string) (models.OutputRecord, error)
	ListWeather(ctx context.Context, date string) ([]string, error)
}

type Handler struct {
	scheduler *scheduler.Scheduler
	locations LocationLister
	weather   WeatherReader
	logger    *zap.Logger
	startTime time.Time
}

func NewHandler(sched *scheduler.Scheduler, locations LocationLister, weather WeatherReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		scheduler: sched,
		locations: locations,
		weather:   weather,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":          "healthy",
		"timestamp":       time.Now(),
		"uptime":          time.Since(h.startTime).String(),
		"scheduler":       h.scheduler.GetStatus(),
		"storage_enabled": h.weather != nil,
	})
}

// GetRuns handles GET /api/v1/runs
func (h *Handler) GetRuns(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"runs": h.scheduler.Runner().History(),
	})
}

// TriggerRun handles POST /api/v1/runs
func (h *Handler) TriggerRun(c *fiber.Ctx) error {
	if !h.scheduler.ForceRun() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": scheduler.ErrAlreadyRunning.Error(),
		})
	}

	h.logger.Info("Pipeline run triggered via API", zap.String("request_ip", c.IP()))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "triggered",
	})
}

// GetLocations handles GET /api/v1/locations
func (h *Handler) GetLocations(c *fiber.Ctx) error {
	locations, source := h.locations.Locations("")
	names := make([]string, 0, len(locations))
	for _, loc := range locations {
		names = append(names, loc.Name)
	}

	return c.JSON(fiber.Map{
		"source":    source,
		"count":     len(names),
		"locations": names,
	})
}

// ListWeather handles GET /api/v1/weather
func (h *Handler) ListWeather(c *fiber.Ctx) error {
	if h.weather == nil {
		return storageDisabled(c)
	}

	date := c.Query("date")
	if !validDate(date) {
		return invalidDate(c)
	}

	keys, err := h.weather.ListWeather(c.UserContext(), date)
	if err != nil {
		h.logger.Error("Failed to list weather data", zap.String("date", date), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to list weather data",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"date": date,
		"keys": keys,
	})
}

// GetWeather handles GET /api/v1/weather/:city
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	if h.weather == nil {
		return storageDisabled(c)
	}

	city, err := url.PathUnescape(c.Params("city"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid city")
	}
	date := c.Query("date")
	if !validDate(date) {
		return invalidDate(c)
	}

	record, err := h.weather.GetWeather(c.UserContext(), city, date)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No weather data stored for city",
			"city":  city,
		})
	}
	if err != nil {
		h.logger.Error("Failed to read weather data",
			zap.String("city", city),
			zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to read weather data",
			"details": err.Error(),
		})
	}

	return c.JSON(record)
}

// validDate accepts an empty date (today) or YYYY-MM-DD.
func validDate(date string) bool {
	if date == "" {
		return true
	}
	_, err := time.Parse(time.DateOnly, date)
	return err == nil
}

func invalidDate(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Date parameter must be formatted as YYYY-MM-DD",
	})
}

func storageDisabled(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "Object storage is not configured",
	})
}
