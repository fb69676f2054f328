package geocode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/weather-collector/internal/models"
)

// Shape is the top-level form of a geocoding response.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeList
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeObject:
		return "object"
	default:
		return "unknown"
	}
}

type Result struct {
	Shape       Shape
	Coordinates models.Coordinates
}

// Parse extracts coordinates from a geocoding response. A list uses its first
// candidate; a single object is used as is; any other shape is rejected.
func Parse(body []byte) (Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Result{}, parseErr("empty response")
	}

	switch trimmed[0] {
	case '[':
		var candidates []json.RawMessage
		if err := json.Unmarshal(trimmed, &candidates); err != nil {
			return Result{Shape: ShapeList}, parseErr("invalid list: %v", err)
		}
		if len(candidates) == 0 {
			return Result{Shape: ShapeList}, parseErr("no candidates returned")
		}
		coords, err := candidate(candidates[0])
		return Result{Shape: ShapeList, Coordinates: coords}, err
	case '{':
		coords, err := candidate(trimmed)
		return Result{Shape: ShapeObject, Coordinates: coords}, err
	default:
		return Result{}, parseErr("unexpected response shape")
	}
}

func candidate(raw json.RawMessage) (models.Coordinates, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.Coordinates{}, parseErr("candidate is not an object")
	}

	lat, err := number(fields, "latitude")
	if err != nil {
		return models.Coordinates{}, err
	}
	lon, err := number(fields, "longitude")
	if err != nil {
		return models.Coordinates{}, err
	}
	return models.Coordinates{Latitude: lat, Longitude: lon}, nil
}

// number accepts a JSON number or a numeric string.
func number(fields map[string]json.RawMessage, key string) (float64, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, parseErr("missing %s", key)
	}

	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, parseErr("%s is null", key)
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, parseErr("%s is not numeric", key)
		}
		value, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, parseErr("%s is not numeric", key)
		}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, parseErr("%s is not finite", key)
	}
	return value, nil
}

func parseErr(format string, args ...any) error {
	return &models.ParseError{Source: "geocode", Reason: fmt.Sprintf(format, args...)}
}
