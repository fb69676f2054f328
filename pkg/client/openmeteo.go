package client

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

const (
	DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"
	DefaultForecastDays = 7
	DefaultHourlyParams = "temperature_2m,precipitation,windspeed_10m"
)

type OpenMeteoClient struct {
	*BaseClient
	baseURL      string
	forecastDays int
	hourlyParams string
}

func NewOpenMeteoClient(baseURL string, forecastDays int, hourlyParams string, config ClientConfig, logger *zap.Logger) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	if forecastDays <= 0 {
		forecastDays = DefaultForecastDays
	}
	if hourlyParams == "" {
		hourlyParams = DefaultHourlyParams
	}

	return &OpenMeteoClient{
		BaseClient:   NewBaseClient("open-meteo", config, logger),
		baseURL:      baseURL,
		forecastDays: forecastDays,
		hourlyParams: hourlyParams,
	}
}

// Forecast returns the raw forecast response for a coordinate pair.
func (c *OpenMeteoClient) Forecast(ctx context.Context, latitude, longitude float64) ([]byte, error) {
	params := map[string]string{
		"latitude":      strconv.FormatFloat(latitude, 'f', -1, 64),
		"longitude":     strconv.FormatFloat(longitude, 'f', -1, 64),
		"hourly":        c.hourlyParams,
		"forecast_days": strconv.Itoa(c.forecastDays),
	}

	data, err := c.Get(ctx, c.baseURL, params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	return data, nil
}
