package geocode

import (
	"errors"
	"testing"

	"github.com/bobby-s-dev/weather-collector/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		shape   Shape
		lat     float64
		lon     float64
		wantErr bool
	}{
		{name: "list uses first candidate", body: `[{"latitude":52.37,"longitude":4.89},{"latitude":1,"longitude":2}]`, shape: ShapeList, lat: 52.37, lon: 4.89},
		{name: "single object", body: `{"latitude":51.92,"longitude":4.48}`, shape: ShapeObject, lat: 51.92, lon: 4.48},
		{name: "numeric strings", body: `[{"latitude":"52.09","longitude":" 5.12 "}]`, shape: ShapeList, lat: 52.09, lon: 5.12},
		{name: "leading whitespace", body: "  \n[{\"latitude\":0,\"longitude\":0}]", shape: ShapeList},
		{name: "empty list", body: `[]`, shape: ShapeList, wantErr: true},
		{name: "missing longitude", body: `[{"latitude":52.37}]`, shape: ShapeList, wantErr: true},
		{name: "null latitude", body: `{"latitude":null,"longitude":4.89}`, shape: ShapeObject, wantErr: true},
		{name: "non-numeric string", body: `{"latitude":"north","longitude":4.89}`, shape: ShapeObject, wantErr: true},
		{name: "first candidate not an object", body: `["Amsterdam"]`, shape: ShapeList, wantErr: true},
		{name: "scalar response", body: `"Amsterdam"`, shape: ShapeUnknown, wantErr: true},
		{name: "empty body", body: ``, shape: ShapeUnknown, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse([]byte(tt.body))
			if result.Shape != tt.shape {
				t.Fatalf("expected shape %s, got %s", tt.shape, result.Shape)
			}
			if tt.wantErr {
				if !errors.Is(err, models.ErrMalformedResponse) {
					t.Fatalf("expected ErrMalformedResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Coordinates.Latitude != tt.lat || result.Coordinates.Longitude != tt.lon {
				t.Fatalf("unexpected coordinates: %+v", result.Coordinates)
			}
		})
	}
}
