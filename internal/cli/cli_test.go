package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/config"
	"github.com/bobby-s-dev/weather-collector/internal/models"
)

func testConfig(geocodingURL, weatherURL string) *config.Config {
	cfg := &config.Config{LogLevel: "info"}
	cfg.HTTPTimeout = 5 * time.Second
	cfg.Geocoding.Provider = "ninjas"
	cfg.Geocoding.URL = geocodingURL
	cfg.Weather.URL = weatherURL
	cfg.Weather.ForecastDays = 1
	cfg.Weather.HourlyParams = "temperature_2m"
	cfg.Cache.Backend = "none"
	cfg.CircuitBreaker.Threshold = 10
	cfg.CircuitBreaker.Timeout = time.Second
	cfg.Warehouse.Table = "raw_weather"
	return cfg
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := New(cfg, zap.NewNop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCollectCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geocoding":
			if r.URL.Query().Get("city") == "Atlantis" {
				_, _ = w.Write([]byte(`[]`))
				return
			}
			_, _ = w.Write([]byte(`[{"name":"x","latitude":52.1,"longitude":5.1,"country":"NL"}]`))
		case "/forecast":
			_, _ = w.Write([]byte(`{"latitude":52.1,"hourly":{"time":["2024-03-01T00:00"],"temperature_2m":[7.5]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	cities := filepath.Join(dir, "cities.txt")
	if err := os.WriteFile(cities, []byte("Leiden\nAtlantis\nDen Haag\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	output := filepath.Join(dir, "records.json")

	out, err := execute(t, testConfig(srv.URL+"/geocoding", srv.URL+"/forecast"), "collect", "--locations", cities, "--output", output)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !strings.Contains(out, "Weather data for 2 cities has been collected.") {
		t.Fatalf("unexpected report:\n%s", out)
	}
	if !strings.Contains(out, "Data was not stored in Scaleway") {
		t.Fatalf("expected storage-disabled line:\n%s", out)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var records []models.OutputRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(records) != 2 || records[0].Location.City != "Leiden" || records[1].Location.City != "Den Haag" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if *records[1].Location.Coordinates.Lat != 52.1 {
		t.Fatalf("unexpected coordinates: %+v", records[1].Location.Coordinates)
	}
}

func TestLocationsCommand(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1", "http://127.0.0.1:1")

	out, err := execute(t, cfg, "locations", "--locations", filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatalf("locations: %v", err)
	}
	if !strings.HasPrefix(out, "Source: default (") || !strings.Contains(out, "  Amsterdam,NL\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestLoadCommandRequiresStorage(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1", "http://127.0.0.1:1")

	if _, err := execute(t, cfg, "load", "--date", "2024-03-01"); err != errStorageDisabled {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := execute(t, cfg, "load", "--date", "01-03-2024"); err == nil {
		t.Fatalf("expected invalid date error")
	}
}
