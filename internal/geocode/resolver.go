package geocode

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/models"
)

// Geocoder returns the raw geocoding response for a city.
type Geocoder interface {
	Geocode(ctx context.Context, city, country string) ([]byte, error)
}

// Set is an insertion-ordered mapping from location name to resolved location.
type Set struct {
	order  []string
	byName map[string]models.Location
}

func NewSet() *Set {
	return &Set{byName: make(map[string]models.Location)}
}

// Put stores loc under its name. A name seen before keeps its original position.
func (s *Set) Put(loc models.Location) {
	if _, exists := s.byName[loc.Name]; !exists {
		s.order = append(s.order, loc.Name)
	}
	s.byName[loc.Name] = loc
}

func (s *Set) Get(name string) (models.Location, bool) {
	loc, ok := s.byName[name]
	return loc, ok
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

func (s *Set) Names() []string {
	return append([]string(nil), s.order...)
}

// Locations returns the resolved locations in insertion order.
func (s *Set) Locations() []models.Location {
	if s == nil {
		return nil
	}
	out := make([]models.Location, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Resolve geocodes every location with one call each. Failures are recorded as
// outcomes and skipped; only a missing geocoder aborts the batch.
func Resolve(ctx context.Context, locations []models.Location, geocoder Geocoder, logger *zap.Logger) (*Set, []models.Outcome, error) {
	if geocoder == nil {
		return nil, nil, fmt.Errorf("%w: geocoding client is required", models.ErrInvalidArgument)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	resolved := NewSet()
	outcomes := make([]models.Outcome, 0, len(locations))

	for _, loc := range locations {
		coords, err := resolveOne(ctx, loc, geocoder, logger)
		if err != nil {
			logger.Warn("Failed to geocode location",
				zap.String("city", loc.Name),
				zap.String("country", loc.Country),
				zap.Error(err))
			outcomes = append(outcomes, models.Failed(models.StageGeocode, loc.Name, err))
			continue
		}

		resolved.Put(loc.WithCoordinates(coords))
		outcomes = append(outcomes, models.Succeeded(models.StageGeocode, loc.Name))
		logger.Info("Geocoded location",
			zap.String("city", loc.Name),
			zap.Float64("latitude", coords.Latitude),
			zap.Float64("longitude", coords.Longitude))
	}

	logger.Info("Geocoding complete",
		zap.Int("resolved", resolved.Len()),
		zap.Int("requested", len(locations)))

	return resolved, outcomes, nil
}

func resolveOne(ctx context.Context, loc models.Location, geocoder Geocoder, logger *zap.Logger) (models.Coordinates, error) {
	body, err := geocoder.Geocode(ctx, loc.Name, loc.Country)
	if err != nil {
		return models.Coordinates{}, err
	}
	logger.Debug("Received geocode data",
		zap.String("city", loc.Name),
		zap.ByteString("body", body))

	result, err := Parse(body)
	if err != nil {
		return models.Coordinates{}, err
	}
	return result.Coordinates, nil
}
