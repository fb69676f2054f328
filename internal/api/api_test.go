package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/collector"
	"github.com/bobby-s-dev/weather-collector/internal/metrics"
	"github.com/bobby-s-dev/weather-collector/internal/models"
	"github.com/bobby-s-dev/weather-collector/internal/scheduler"
	"github.com/bobby-s-dev/weather-collector/internal/storage"
)

type staticLocations struct{}

func (staticLocations) Locations(string) ([]models.Location, collector.LocationSource) {
	return []models.Location{models.NewLocation("Amsterdam", "NL"), models.NewLocation("Den Haag", "NL")}, collector.SourceDefault
}

func newTestApp(t *testing.T, weather WeatherReader, release chan struct{}) *fiber.App {
	t.Helper()
	p, err := scheduler.ParsePipeline([]byte("name: test\ntasks:\n  - name: collect\n"))
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	runner, err := scheduler.NewRunner(p, map[string]scheduler.TaskFunc{
		"collect": func(ctx context.Context) error {
			if release != nil {
				<-release
			}
			return nil
		},
	}, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	sched := scheduler.NewScheduler(runner, "@daily", false, zap.NewNop())

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, NewHandler(sched, staticLocations{}, weather, zap.NewNop()), metrics.New().Handler(), zap.NewNop())
	return app
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	decode(t, resp, &body)
	if body["status"] != "healthy" || body["storage_enabled"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestLocations(t *testing.T) {
	app := newTestApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	var body struct {
		Source    string   `json:"source"`
		Count     int      `json:"count"`
		Locations []string `json:"locations"`
	}
	decode(t, resp, &body)
	if body.Source != "default" || body.Count != 2 || body.Locations[1] != "Den Haag" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestTriggerRun(t *testing.T) {
	release := make(chan struct{})
	app := newTestApp(t, nil, release)
	defer close(release)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestWeatherEndpoints(t *testing.T) {
	store := storage.NewWeatherStore(storage.NewMemoryStore("weather-data"))
	record := models.OutputRecord{
		Location:    models.RecordLocation{City: "Den Haag", Country: "NL"},
		WeatherData: map[string]json.RawMessage{"daily": json.RawMessage(`{"temperature_2m_max":[11]}`)},
	}
	if _, err := store.StoreWeather(context.Background(), "2024-03-01", "Den Haag", record); err != nil {
		t.Fatalf("store: %v", err)
	}
	app := newTestApp(t, store, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather/Den%20Haag?date=2024-03-01", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got models.OutputRecord
	decode(t, resp, &got)
	if got.Location.City != "Den Haag" {
		t.Fatalf("unexpected record: %+v", got)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather/Utrecht?date=2024-03-01", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather/Utrecht?date=yesterday", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather?date=../2024", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed list date, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather?date=2024-03-01", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var listing struct {
		Keys []string `json:"keys"`
	}
	decode(t, resp, &listing)
	if len(listing.Keys) != 1 || listing.Keys[0] != "weather/2024-03-01/den_haag.json" {
		t.Fatalf("unexpected keys: %v", listing.Keys)
	}
}

func TestWeatherWithoutStorage(t *testing.T) {
	app := newTestApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather/Amsterdam", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "weather_collector_run_duration_seconds") {
		t.Fatalf("expected collector metrics, got:\n%s", body)
	}
}

func TestUnknownEndpoint(t *testing.T) {
	app := newTestApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/cities", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
