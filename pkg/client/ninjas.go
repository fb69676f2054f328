package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const DefaultNinjasGeocodingURL = "https://api.api-ninjas.com/v1/geocoding"

// NinjasGeocodingClient queries the API Ninjas geocoding endpoint.
type NinjasGeocodingClient struct {
	*BaseClient
	apiKey  string
	baseURL string
}

func NewNinjasGeocodingClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *NinjasGeocodingClient {
	if baseURL == "" {
		baseURL = DefaultNinjasGeocodingURL
	}
	return &NinjasGeocodingClient{
		BaseClient: NewBaseClient("geocoding", config, logger),
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// Geocode returns the raw geocoding response for a city, optionally narrowed by country code.
func (c *NinjasGeocodingClient) Geocode(ctx context.Context, city, country string) ([]byte, error) {
	params := map[string]string{"city": city}
	if country != "" {
		params["country"] = country
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["X-Api-Key"] = c.apiKey
	}

	data, err := c.Get(ctx, c.baseURL, params, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %s: %w", city, err)
	}
	return data, nil
}
