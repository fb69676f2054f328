package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/geocode"
	"github.com/bobby-s-dev/weather-collector/internal/models"
)

// Client returns the raw weather service response for a coordinate pair.
type Client interface {
	Forecast(ctx context.Context, latitude, longitude float64) ([]byte, error)
}

// Parse decodes a weather service response and checks that at least one of
// the current, hourly or daily sections is an object.
func Parse(body []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, &models.ParseError{Source: "forecast", Reason: "response is not an object"}
	}

	for _, section := range models.ForecastSections {
		if isObject(fields[section]) {
			return fields, nil
		}
	}
	return nil, &models.ParseError{Source: "forecast", Reason: "no current, hourly or daily section"}
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Fetch retrieves one forecast per resolved location, in set order. Failed
// locations are recorded as outcomes and skipped.
func Fetch(ctx context.Context, locations *geocode.Set, client Client, logger *zap.Logger) ([]models.ForecastRecord, []models.Outcome, error) {
	if client == nil {
		return nil, nil, fmt.Errorf("%w: weather client is required", models.ErrInvalidArgument)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	records := make([]models.ForecastRecord, 0, locations.Len())
	outcomes := make([]models.Outcome, 0, locations.Len())

	for _, loc := range locations.Locations() {
		if !loc.HasCoordinates() {
			logger.Warn("Skipping location without coordinates", zap.String("city", loc.Name))
			outcomes = append(outcomes, models.Failed(models.StageForecast, loc.Name,
				fmt.Errorf("%w: %s has no coordinates", models.ErrInvalidArgument, loc.Name)))
			continue
		}

		body, err := client.Forecast(ctx, loc.Coordinates.Latitude, loc.Coordinates.Longitude)
		if err != nil {
			logger.Warn("Failed to fetch forecast",
				zap.String("city", loc.Name),
				zap.Error(err))
			outcomes = append(outcomes, models.Failed(models.StageForecast, loc.Name, err))
			continue
		}

		fields, err := Parse(body)
		if err != nil {
			logger.Warn("Invalid forecast response",
				zap.String("city", loc.Name),
				zap.Error(err))
			outcomes = append(outcomes, models.Failed(models.StageForecast, loc.Name, err))
			continue
		}

		record := models.ForecastRecord{
			CityName: loc.Name,
			Metadata: models.MetadataFor(loc),
			Fields:   fields,
		}
		if len(records) == 0 {
			logStructure(logger, record)
		}
		records = append(records, record)
		outcomes = append(outcomes, models.Succeeded(models.StageForecast, loc.Name))
		logger.Info("Fetched forecast", zap.String("city", loc.Name))
	}

	logger.Info("Forecast retrieval complete",
		zap.Int("fetched", len(records)),
		zap.Int("requested", locations.Len()))

	return records, outcomes, nil
}

// logStructure logs the field layout of a sample record.
func logStructure(logger *zap.Logger, record models.ForecastRecord) {
	keys := make([]string, 0, len(record.Fields))
	for k := range record.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	logger.Debug("Sample forecast structure",
		zap.String("city", record.CityName),
		zap.Strings("fields", keys))

	var hourly map[string]json.RawMessage
	if json.Unmarshal(record.Fields["hourly"], &hourly) == nil && len(hourly) > 0 {
		hourlyKeys := make([]string, 0, len(hourly))
		for k := range hourly {
			hourlyKeys = append(hourlyKeys, k)
		}
		sort.Strings(hourlyKeys)
		logger.Debug("Hourly forecast keys", zap.Strings("keys", hourlyKeys))
	}
}
