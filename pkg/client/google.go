package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"
)

// geocoder keeps its API key in a package variable.
var googleKeyMu sync.Mutex

// GoogleGeocodingClient resolves cities through the Google Maps geocoding API.
// Responses are re-encoded as a single {"latitude","longitude"} object so they
// go through the same parse step as every other provider.
//
// The geocoder package uses its own http.Client, so the configured timeout and
// ctx are enforced around the call. An abandoned lookup finishes in the background.
type GoogleGeocodingClient struct {
	*BaseClient
	apiKey  string
	timeout time.Duration
	lookup  func(geocoder.Address) (geocoder.Location, error)
}

func NewGoogleGeocodingClient(apiKey string, config ClientConfig, logger *zap.Logger) *GoogleGeocodingClient {
	return &GoogleGeocodingClient{
		BaseClient: NewBaseClient("google-geocoding", config, logger),
		apiKey:     apiKey,
		timeout:    config.Timeout,
		lookup:     geocoder.Geocoding,
	}
}

type googleResult struct {
	location geocoder.Location
	err      error
}

func (c *GoogleGeocodingClient) Geocode(ctx context.Context, city, country string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	return c.guard(func() ([]byte, error) {
		done := make(chan googleResult, 1)
		go func() {
			googleKeyMu.Lock()
			defer googleKeyMu.Unlock()
			geocoder.ApiKey = c.apiKey
			location, err := c.lookup(geocoder.Address{City: city, Country: country})
			done <- googleResult{location: location, err: err}
		}()

		var res googleResult
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to geocode %s: %w", city, ctx.Err())
		case res = <-done:
		}
		if res.err != nil {
			return nil, fmt.Errorf("failed to geocode %s: %w", city, res.err)
		}

		return json.Marshal(map[string]float64{
			"latitude":  res.location.Latitude,
			"longitude": res.location.Longitude,
		})
	})
}
