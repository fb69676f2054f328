package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/models"
)

// Persister writes one city's output record for a collection date.
type Persister interface {
	StoreWeather(ctx context.Context, date, city string, record models.OutputRecord) (string, error)
}

// Shape converts a forecast into its persisted form. It reports false when the
// record carries no city name or location metadata.
func Shape(f models.ForecastRecord) (models.OutputRecord, bool) {
	if f.CityName == "" || f.Metadata == nil {
		return models.OutputRecord{}, false
	}

	country := f.Metadata.Country
	if country == "" {
		country = models.UnknownCountry
	}

	data := make(map[string]json.RawMessage, len(f.Fields)+1)
	for k, v := range f.Fields {
		if k == models.FieldLocationMetadata {
			continue
		}
		data[k] = v
	}
	cityName, _ := json.Marshal(f.CityName)
	data[models.FieldCityName] = cityName

	return models.OutputRecord{
		Location: models.RecordLocation{
			City:    f.Metadata.City,
			Country: country,
			Coordinates: models.RecordCoordinates{
				Lat: f.Metadata.Latitude,
				Lon: f.Metadata.Longitude,
			},
		},
		WeatherData: data,
	}, true
}

// ShapeAndStore shapes every forecast and, when store is set, persists it under
// date. A failed write is recorded as a store outcome; the record is still returned.
func ShapeAndStore(ctx context.Context, forecasts []models.ForecastRecord, store Persister, date string, logger *zap.Logger) ([]models.OutputRecord, []models.Outcome) {
	if logger == nil {
		logger = zap.NewNop()
	}

	records := make([]models.OutputRecord, 0, len(forecasts))
	var outcomes []models.Outcome

	for _, f := range forecasts {
		record, ok := Shape(f)
		if !ok {
			logger.Warn("Skipping forecast without location data", zap.String("city", f.CityName))
			continue
		}

		if store != nil {
			key, err := store.StoreWeather(ctx, date, f.CityName, record)
			if err != nil {
				logger.Error("Failed to store weather data",
					zap.String("city", f.CityName),
					zap.Error(err))
				outcomes = append(outcomes, models.Failed(models.StageStore, f.CityName, fmt.Errorf("store %s: %w", f.CityName, err)))
			} else {
				logger.Info("Stored weather data",
					zap.String("city", f.CityName),
					zap.String("key", key))
				outcomes = append(outcomes, models.Succeeded(models.StageStore, f.CityName))
			}
		}

		records = append(records, record)
	}

	return records, outcomes
}
