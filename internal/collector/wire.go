package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/config"
	"github.com/bobby-s-dev/weather-collector/internal/geocode"
	"github.com/bobby-s-dev/weather-collector/internal/metrics"
	"github.com/bobby-s-dev/weather-collector/internal/storage"
	"github.com/bobby-s-dev/weather-collector/pkg/client"
)

// NewFromConfig builds a collector from configuration. A nil store disables
// persistence. The returned func releases caches.
func NewFromConfig(cfg *config.Config, store *storage.WeatherStore, m *metrics.Metrics, logger *zap.Logger) (*Collector, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := client.ClientConfig{
		Timeout:        cfg.HTTPTimeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		Multiplier:     cfg.Retry.Multiplier,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}

	geocoder, cleanup, err := newGeocoder(cfg, clientConfig, logger)
	if err != nil {
		return nil, nil, err
	}

	weather := client.NewOpenMeteoClient(cfg.Weather.URL, cfg.Weather.ForecastDays, cfg.Weather.HourlyParams, clientConfig, logger)

	opts := Options{
		Geocoder:      geocoder,
		Weather:       weather,
		LocationsFile: cfg.LocationsFile,
		Metrics:       m,
		Logger:        logger,
	}
	if store != nil {
		opts.Store = store
	}

	return New(opts), cleanup, nil
}

// NewStore returns the weather store, or nil when storage is disabled or misconfigured.
func NewStore(cfg *config.Config, logger *zap.Logger) *storage.WeatherStore {
	if !cfg.Storage.Enabled {
		logger.Info("Object storage disabled")
		return nil
	}

	s3, err := storage.NewS3Store(storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize object storage, continuing without persistence", zap.Error(err))
		return nil
	}
	return storage.NewWeatherStore(s3)
}

func newGeocoder(cfg *config.Config, clientConfig client.ClientConfig, logger *zap.Logger) (geocode.Geocoder, func(), error) {
	var geocoder geocode.Geocoder
	switch cfg.Geocoding.Provider {
	case "google":
		geocoder = client.NewGoogleGeocodingClient(cfg.Geocoding.APIKey, clientConfig, logger)
	default:
		geocoder = client.NewNinjasGeocodingClient(cfg.Geocoding.APIKey, cfg.Geocoding.URL, clientConfig, logger)
	}

	if cfg.Geocoding.RPS > 0 {
		geocoder = geocode.NewRateLimitedGeocoder(geocoder, cfg.Geocoding.RPS, cfg.Geocoding.Burst)
	}

	cleanup := func() {}
	switch cfg.Cache.Backend {
	case "memory":
		cache := geocode.NewMemoryCache(cfg.Cache.Duration, cfg.Cache.MaxSize, logger)
		geocoder = geocode.NewCachingGeocoder(geocoder, cache, logger)
		cleanup = cache.Stop
	case "redis":
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, geocode cache disabled", zap.Error(err))
			_ = rdb.Close()
			return geocoder, cleanup, nil
		}

		geocoder = geocode.NewCachingGeocoder(geocoder, geocode.NewRedisCache(rdb, "", cfg.Cache.Duration), logger)
		cleanup = func() { _ = rdb.Close() }
	}

	return geocoder, cleanup, nil
}
