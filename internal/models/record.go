package models

import (
	"encoding/json"
	"time"
)

const (
	FieldCityName         = "city_name"
	FieldLocationMetadata = "location_metadata"

	UnknownCountry = "Unknown"
)

// ForecastSections are the top-level weather service sections; at least one must be an object.
var ForecastSections = []string{"current", "hourly", "daily"}

type LocationMetadata struct {
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func MetadataFor(loc Location) *LocationMetadata {
	meta := &LocationMetadata{City: loc.Name, Country: loc.Country}
	if loc.Coordinates != nil {
		lat, lon := loc.Coordinates.Latitude, loc.Coordinates.Longitude
		meta.Latitude = &lat
		meta.Longitude = &lon
	}
	return meta
}

// ForecastRecord is a validated weather service response tagged with the location it belongs to.
type ForecastRecord struct {
	CityName string
	Metadata *LocationMetadata
	Fields   map[string]json.RawMessage
}

// MarshalJSON renders the record the way it travels between stages: the raw
// fields plus city_name and location_metadata.
func (r ForecastRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	if r.CityName != "" {
		out[FieldCityName] = r.CityName
	}
	if r.Metadata != nil {
		out[FieldLocationMetadata] = r.Metadata
	}
	return json.Marshal(out)
}

type RecordCoordinates struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type RecordLocation struct {
	City        string            `json:"city"`
	Country     string            `json:"country"`
	Coordinates RecordCoordinates `json:"coordinates"`
}

// OutputRecord is the persisted artifact, one per city per collection date.
type OutputRecord struct {
	Location    RecordLocation             `json:"location"`
	WeatherData map[string]json.RawMessage `json:"weather_data"`
}

// CollectionDate formats t the way storage keys and partitions expect.
func CollectionDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
