package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/models"
)

type fakeGeocoder struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeGeocoder) Geocode(_ context.Context, city, _ string) ([]byte, error) {
	f.calls = append(f.calls, city)
	if err, ok := f.errs[city]; ok {
		return nil, err
	}
	return []byte(f.responses[city]), nil
}

func TestResolveSkipsFailures(t *testing.T) {
	geocoder := &fakeGeocoder{
		responses: map[string]string{
			"Amsterdam": `[{"latitude":52.37,"longitude":4.89}]`,
			"Rotterdam": `[]`,
			"Utrecht":   `{"latitude":52.09,"longitude":5.12}`,
		},
		errs: map[string]error{"Delft": errors.New("connection reset")},
	}
	locations := []models.Location{
		models.NewLocation("Amsterdam", "NL"),
		models.NewLocation("Rotterdam", "NL"),
		models.NewLocation("Delft", "NL"),
		models.NewLocation("Utrecht", "NL"),
	}

	set, outcomes, err := Resolve(context.Background(), locations, geocoder, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := set.Names(); len(got) != 2 || got[0] != "Amsterdam" || got[1] != "Utrecht" {
		t.Fatalf("unexpected resolved names: %v", got)
	}
	for _, loc := range set.Locations() {
		if !loc.HasCoordinates() {
			t.Fatalf("resolved location without coordinates: %+v", loc)
		}
	}
	if locations[0].HasCoordinates() {
		t.Fatalf("input locations must not be modified")
	}

	stats := models.Tally(outcomes)
	if stats.Attempted != 4 || stats.Succeeded != 2 || stats.Failed != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(geocoder.calls) != 4 {
		t.Fatalf("expected one call per location, got %d", len(geocoder.calls))
	}
}

func TestResolveRequiresGeocoder(t *testing.T) {
	_, _, err := Resolve(context.Background(), nil, nil, zap.NewNop())
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSetKeepsFirstPosition(t *testing.T) {
	set := NewSet()
	set.Put(models.NewLocation("Leiden", "NL").WithCoordinates(models.Coordinates{Latitude: 1, Longitude: 1}))
	set.Put(models.NewLocation("Delft", "NL").WithCoordinates(models.Coordinates{Latitude: 2, Longitude: 2}))
	set.Put(models.NewLocation("Leiden", "NL").WithCoordinates(models.Coordinates{Latitude: 3, Longitude: 3}))

	if set.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", set.Len())
	}
	if names := set.Names(); names[0] != "Leiden" || names[1] != "Delft" {
		t.Fatalf("unexpected order: %v", names)
	}
	loc, _ := set.Get("Leiden")
	if loc.Coordinates.Latitude != 3 {
		t.Fatalf("expected latest coordinates, got %+v", loc.Coordinates)
	}
}

func TestCachingGeocoderCachesValidResponses(t *testing.T) {
	upstream := &fakeGeocoder{responses: map[string]string{
		"Amsterdam": `[{"latitude":52.37,"longitude":4.89}]`,
		"Nowhere":   `[]`,
	}}
	cache := NewMemoryCache(time.Hour, 10, zap.NewNop())
	defer cache.Stop()
	geocoder := NewCachingGeocoder(upstream, cache, zap.NewNop())

	for i := 0; i < 2; i++ {
		body, err := geocoder.Geocode(context.Background(), "Amsterdam", "NL")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result, err := Parse(body)
		if err != nil || result.Coordinates.Latitude != 52.37 {
			t.Fatalf("unexpected cached result: %+v, %v", result, err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := geocoder.Geocode(context.Background(), "Nowhere", "NL"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(upstream.calls) != 3 {
		t.Fatalf("expected 3 upstream calls, got %d: %v", len(upstream.calls), upstream.calls)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", cache.Len())
	}
}

func TestMemoryCacheEvictsAndExpires(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Hour, 2, zap.NewNop())
	defer cache.Stop()

	_ = cache.Set(ctx, "a", models.Coordinates{Latitude: 1})
	_ = cache.Set(ctx, "b", models.Coordinates{Latitude: 2})
	_ = cache.Set(ctx, "c", models.Coordinates{Latitude: 3})
	if cache.Len() != 2 {
		t.Fatalf("expected size to stay at 2, got %d", cache.Len())
	}
	if _, ok, _ := cache.Get(ctx, "c"); !ok {
		t.Fatalf("expected newest entry to be cached")
	}

	expiring := NewMemoryCache(-time.Second, 0, zap.NewNop())
	defer expiring.Stop()
	_ = expiring.Set(ctx, "a", models.Coordinates{Latitude: 1})
	if _, ok, _ := expiring.Get(ctx, "a"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestRateLimitedGeocoderPassesThrough(t *testing.T) {
	upstream := &fakeGeocoder{responses: map[string]string{"Gouda": `{"latitude":52.01,"longitude":4.71}`}}
	geocoder := NewRateLimitedGeocoder(upstream, 1000, 1)

	body, err := geocoder.Geocode(context.Background(), "Gouda", "NL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"latitude":52.01,"longitude":4.71}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestCacheKeyNormalizes(t *testing.T) {
	if CacheKey(" Den Haag ", "nl") != "den haag:NL" {
		t.Fatalf("unexpected key: %q", CacheKey(" Den Haag ", "nl"))
	}
}
