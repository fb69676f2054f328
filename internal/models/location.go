package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument is returned when a required collaborator is missing.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedResponse is returned when an upstream payload has an unexpected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a named place. Coordinates is nil until the place has been geocoded.
type Location struct {
	Name        string       `json:"name" validate:"required"`
	Country     string       `json:"country,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

func NewLocation(name, country string) Location {
	return Location{Name: name, Country: country}
}

func (l Location) HasCoordinates() bool {
	return l.Coordinates != nil
}

// WithCoordinates returns a copy of l resolved to c.
func (l Location) WithCoordinates(c Coordinates) Location {
	l.Coordinates = &c
	return l
}

func (l Location) String() string {
	if l.Country == "" {
		return l.Name
	}
	return fmt.Sprintf("%s,%s", l.Name, l.Country)
}

// Slug is the storage-safe form of a city name: lowercase, spaces replaced with underscores.
func Slug(city string) string {
	return strings.ReplaceAll(strings.ToLower(city), " ", "_")
}

// ParseError describes why an upstream payload was rejected.
type ParseError struct {
	Source string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedResponse
}
