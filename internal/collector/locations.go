package collector

import (
	"errors"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/models"
	"github.com/bobby-s-dev/weather-collector/internal/registry"
)

type LocationSource string

const (
	SourceCustom   LocationSource = "custom"
	SourceDefault  LocationSource = "default"
	SourceFallback LocationSource = "fallback"
)

// LoadLocations picks the locations for a run. A custom path that does not
// exist falls through to the built-in registry; any other load error, or an
// empty list, falls through to the hardcoded fallback.
func LoadLocations(path string, logger *zap.Logger) ([]models.Location, LocationSource) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != "" {
		locations, err := registry.Load(path)
		switch {
		case err == nil && len(locations) > 0:
			logger.Info("Using custom locations file",
				zap.String("path", path),
				zap.Int("count", len(locations)))
			return locations, SourceCustom
		case errors.Is(err, registry.ErrNotFound):
			logger.Info("Custom locations file not found, using default list", zap.String("path", path))
		default:
			return fallback(logger, path, err)
		}
	}

	locations, err := registry.Load("")
	if err != nil || len(locations) == 0 {
		return fallback(logger, "", err)
	}
	logger.Info("Using default Dutch cities list", zap.Int("count", len(locations)))
	return locations, SourceDefault
}

func fallback(logger *zap.Logger, path string, err error) ([]models.Location, LocationSource) {
	if err != nil {
		logger.Error("Error loading locations", zap.String("path", path), zap.Error(err))
	} else {
		logger.Error("No locations loaded", zap.String("path", path))
	}
	logger.Info("Using fallback default locations")
	return registry.Fallback(), SourceFallback
}
