package registry

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/bobby-s-dev/weather-collector/internal/models"
)

// DefaultCountry is attached to every location read from a city list.
const DefaultCountry = "NL"

// ErrNotFound is returned when a location source cannot be opened.
var ErrNotFound = errors.New("location source not found")

//go:embed data/dutch_cities.txt
var dutchCities []byte

// Load reads a newline-delimited city list. An empty path loads the built-in Dutch city list.
func Load(path string) ([]models.Location, error) {
	if path == "" {
		return Parse(bytes.NewReader(dutchCities))
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	locations, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return locations, nil
}

// Parse turns each non-blank trimmed line into a location, keeping input order.
func Parse(r io.Reader) ([]models.Location, error) {
	var locations []models.Location

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		locations = append(locations, models.NewLocation(name, DefaultCountry))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return locations, nil
}

// Fallback is the last-resort list used when no location source could be loaded.
func Fallback() []models.Location {
	return []models.Location{
		models.NewLocation("Amsterdam", DefaultCountry),
		models.NewLocation("Rotterdam", DefaultCountry),
		models.NewLocation("Utrecht", DefaultCountry),
	}
}
