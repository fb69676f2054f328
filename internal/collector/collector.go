package collector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/forecast"
	"github.com/bobby-s-dev/weather-collector/internal/geocode"
	"github.com/bobby-s-dev/weather-collector/internal/metrics"
	"github.com/bobby-s-dev/weather-collector/internal/models"
	"github.com/bobby-s-dev/weather-collector/internal/storage"
)

const (
	reasonNoLocations = "no locations geocoded successfully"
	reasonNoForecasts = "no weather data retrieved"
)

// Store is the persistence side of a run. A nil Store disables persistence.
type Store interface {
	Persister
	Bucket() string
}

type Options struct {
	Geocoder      geocode.Geocoder
	Weather       forecast.Client
	Store         Store
	LocationsFile string
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
}

// Collector runs the geocode, forecast and store stages over a location list.
type Collector struct {
	geocoder      geocode.Geocoder
	weather       forecast.Client
	store         Store
	locationsFile string
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

type Result struct {
	Records []models.OutputRecord `json:"records"`
	Summary models.Summary        `json:"summary"`
}

func New(opts Options) *Collector {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		geocoder:      opts.Geocoder,
		weather:       opts.Weather,
		store:         opts.Store,
		locationsFile: opts.LocationsFile,
		metrics:       opts.Metrics,
		logger:        logger,
		now:           time.Now,
	}
}

func (c *Collector) StorageEnabled() bool {
	return c.store != nil
}

// Locations returns the list a run would use right now.
func (c *Collector) Locations(locationsFile string) ([]models.Location, LocationSource) {
	if locationsFile == "" {
		locationsFile = c.locationsFile
	}
	return LoadLocations(locationsFile, c.logger)
}

// Run loads locations and collects them. An empty locationsFile uses the
// configured file, if any.
func (c *Collector) Run(ctx context.Context, locationsFile string) (Result, error) {
	locations, source := c.Locations(locationsFile)
	return c.collect(ctx, locations, source)
}

// Collect processes an explicit location list.
func (c *Collector) Collect(ctx context.Context, locations []models.Location) (Result, error) {
	return c.collect(ctx, locations, SourceCustom)
}

func (c *Collector) collect(ctx context.Context, locations []models.Location, source LocationSource) (Result, error) {
	started := c.now()
	summary := models.Summary{
		RunID:          uuid.NewString(),
		Date:           models.CollectionDate(started),
		LocationSource: string(source),
		Locations:      len(locations),
		State:          models.StateLoadingLocations,
		StorageEnabled: c.store != nil,
		StartedAt:      started,
	}
	if c.store != nil {
		summary.Bucket = c.store.Bucket()
		summary.Prefix = storage.WeatherPrefix(summary.Date)
	}

	logger := c.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("Starting weather data collection",
		zap.Int("locations", len(locations)),
		zap.String("source", string(source)),
		zap.String("date", summary.Date))

	summary.State = models.StateGeocoding
	resolved, outcomes, err := geocode.Resolve(ctx, locations, c.geocoder, logger)
	if err != nil {
		return Result{}, err
	}
	c.record(&summary, models.StageGeocode, outcomes)
	if resolved.Len() == 0 {
		return c.finish(logger, summary, nil, reasonNoLocations), nil
	}

	summary.State = models.StateFetching
	forecasts, outcomes, err := forecast.Fetch(ctx, resolved, c.weather, logger)
	if err != nil {
		return Result{}, err
	}
	c.record(&summary, models.StageForecast, outcomes)
	if len(forecasts) == 0 {
		return c.finish(logger, summary, nil, reasonNoForecasts), nil
	}

	summary.State = models.StateStoring
	var persister Persister
	if c.store != nil {
		persister = c.store
	}
	records, outcomes := ShapeAndStore(ctx, forecasts, persister, summary.Date, logger)
	if c.store != nil {
		c.record(&summary, models.StageStore, outcomes)
	}

	return c.finish(logger, summary, records, ""), nil
}

func (c *Collector) record(summary *models.Summary, stage models.Stage, outcomes []models.Outcome) {
	summary.Record(stage, outcomes)
	c.metrics.ObserveStage(stage, models.Tally(outcomes))
}

func (c *Collector) finish(logger *zap.Logger, summary models.Summary, records []models.OutputRecord, reason string) Result {
	if records == nil {
		records = []models.OutputRecord{}
	}
	summary.State = models.StateDone
	summary.Reason = reason
	summary.Processed = len(records)
	summary.FinishedAt = c.now()
	for _, r := range records {
		summary.Cities = append(summary.Cities, r.Location.City)
	}

	if reason != "" {
		logger.Error("Weather data collection stopped early", zap.String("reason", reason))
	}
	logger.Info("Weather data collection complete",
		zap.Int("processed", summary.Processed),
		zap.Int("geocoded", summary.Geocode.Succeeded),
		zap.Int("fetched", summary.Forecast.Succeeded),
		zap.Int("stored", summary.Store.Succeeded),
		zap.Int("store_failures", summary.Store.Failed),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)))

	c.metrics.ObserveRun(summary)
	return Result{Records: records, Summary: summary}
}
