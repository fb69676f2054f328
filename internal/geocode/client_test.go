package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/models"
	"github.com/bobby-s-dev/weather-collector/pkg/client"
)

func TestResolveDropsOnlyFailingCitiesWithRealClient(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n := atomic.AddInt32(&hits, 1); n == 2 || n == 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"latitude":52.1,"longitude":5.1}]`))
	}))
	defer srv.Close()

	geocoder := client.NewNinjasGeocodingClient("", srv.URL, client.ClientConfig{
		Timeout:        2 * time.Second,
		RetryDelay:     time.Millisecond,
		Multiplier:     2,
		Threshold:      client.DefaultBreakerThreshold,
		BreakerTimeout: 30 * time.Second,
	}, zap.NewNop())

	cities := []string{"Amsterdam", "Rotterdam", "Utrecht", "Leiden", "Delft", "Breda", "Gouda", "Zwolle"}
	locations := make([]models.Location, 0, len(cities))
	for _, city := range cities {
		locations = append(locations, models.NewLocation(city, "NL"))
	}

	set, outcomes, err := Resolve(context.Background(), locations, geocoder, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := atomic.LoadInt32(&hits); got != int32(len(cities)) {
		t.Fatalf("expected %d server hits, got %d", len(cities), got)
	}
	want := []string{"Amsterdam", "Leiden", "Delft", "Breda", "Gouda", "Zwolle"}
	got := set.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if stats := models.Tally(outcomes); stats.Failed != 2 || stats.Succeeded != 6 {
		t.Fatalf("unexpected tally: %+v", stats)
	}
}
