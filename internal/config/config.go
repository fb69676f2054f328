package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	LogLevel      string `validate:"oneof=debug info warn error"`
	LocationsFile string

	Geocoding struct {
		Provider string `validate:"oneof=ninjas google"`
		APIKey   string
		URL      string  `validate:"omitempty,url"`
		RPS      float64 `validate:"gte=0"`
		Burst    int
	}

	Weather struct {
		URL          string `validate:"required,url"`
		ForecastDays int    `validate:"gte=1,lte=16"`
		HourlyParams string
	}

	Storage struct {
		Enabled   bool
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		Region    string
	}

	Warehouse struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
		Table    string `validate:"required"`
	}

	Scheduler struct {
		Schedule   string `validate:"required"`
		RunOnStart bool
	}

	Transform struct {
		Command string
		Dir     string
	}

	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
	}

	Cache struct {
		Backend  string `validate:"oneof=none memory redis"`
		Duration time.Duration
		MaxSize  int
		RedisURL string
	}

	CircuitBreaker struct {
		Threshold int `validate:"gte=0"`
		Timeout   time.Duration
	}

	Retry struct {
		MaxRetries int `validate:"gte=0"`
		Delay      time.Duration
		Multiplier float64
	}

	HTTPTimeout time.Duration
}

var validate = validator.New()

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LocationsFile = getEnv("LOCATIONS_FILE", "")
	cfg.HTTPTimeout = parseDuration(getEnv("HTTP_TIMEOUT", "30s"))

	// Geocoding configuration
	cfg.Geocoding.Provider = getEnv("GEOCODING_PROVIDER", "ninjas")
	cfg.Geocoding.APIKey = getEnv("GEOCODING_API_KEY", "")
	cfg.Geocoding.URL = getEnv("GEOCODING_URL", "https://api.api-ninjas.com/v1/geocoding")
	cfg.Geocoding.RPS = parseFloat(getEnv("GEOCODING_RPS", "0"))
	cfg.Geocoding.Burst = parseInt(getEnv("GEOCODING_BURST", "1"))

	// Weather API configuration
	cfg.Weather.URL = getEnv("WEATHER_API_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.Weather.ForecastDays = parseInt(getEnv("FORECAST_DAYS", "7"))
	cfg.Weather.HourlyParams = getEnv("HOURLY_PARAMS", "temperature_2m,precipitation,windspeed_10m")

	// Object storage configuration
	cfg.Storage.Enabled = parseBool(getEnv("USE_OBJECT_STORE", "true"))
	cfg.Storage.Endpoint = getEnv("SCW_ENDPOINT", "https://s3.nl-ams.scw.cloud")
	cfg.Storage.AccessKey = getEnv("SCW_ACCESS_KEY", "")
	cfg.Storage.SecretKey = getEnv("SCW_SECRET_KEY", "")
	cfg.Storage.Bucket = getEnv("SCW_BUCKET_NAME", "weather-data")
	cfg.Storage.Region = getEnv("SCW_REGION", "nl-ams")

	// Analytical database configuration
	cfg.Warehouse.Host = getEnv("CLICKHOUSE_HOST", "localhost")
	cfg.Warehouse.Port = parseInt(getEnv("CLICKHOUSE_PORT", "9000"))
	cfg.Warehouse.User = getEnv("CLICKHOUSE_USER", "default")
	cfg.Warehouse.Password = getEnv("CLICKHOUSE_PASSWORD", "")
	cfg.Warehouse.Database = getEnv("CLICKHOUSE_DATABASE", "weather")
	cfg.Warehouse.Table = getEnv("CLICKHOUSE_TABLE", "raw_weather")

	// Scheduler configuration
	cfg.Scheduler.Schedule = getEnv("SCHEDULE", "@daily")
	cfg.Scheduler.RunOnStart = parseBool(getEnv("RUN_ON_START", "false"))

	cfg.Transform.Command = getEnv("TRANSFORM_COMMAND", "dbt build")
	cfg.Transform.Dir = getEnv("TRANSFORM_DIR", "")

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "10s"))

	// Geocode cache configuration
	cfg.Cache.Backend = getEnv("GEOCODE_CACHE", "none")
	cfg.Cache.Duration = parseDuration(getEnv("CACHE_DURATION", "720h"))
	cfg.Cache.MaxSize = parseInt(getEnv("MAX_CACHE_SIZE", "1000"))
	cfg.Cache.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379/0")

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "5"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Retry configuration
	cfg.Retry.MaxRetries = parseInt(getEnv("MAX_RETRIES", "0"))
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", "1s"))
	cfg.Retry.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", "2"))

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}

func parseBool(value string) bool {
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		zap.L().Warn("Failed to parse bool", zap.String("value", value), zap.Error(err))
		return false
	}
	return boolValue
}
