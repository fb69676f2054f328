package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bobby-s-dev/weather-collector/internal/models"
)

const weatherRoot = "weather"

// WeatherKey is the date-partitioned object key for one city's record.
func WeatherKey(date, city string) string {
	return fmt.Sprintf("%s/%s/%s.json", weatherRoot, date, models.Slug(city))
}

// WeatherPrefix is the listing prefix for one collection date.
func WeatherPrefix(date string) string {
	return fmt.Sprintf("%s/%s/", weatherRoot, date)
}

// WeatherStore stores output records under the weather/{date}/{slug}.json scheme.
type WeatherStore struct {
	store ObjectStore
	now   func() time.Time
}

func NewWeatherStore(store ObjectStore) *WeatherStore {
	return &WeatherStore{store: store, now: time.Now}
}

func (w *WeatherStore) Bucket() string {
	return w.store.Bucket()
}

// StoreWeather writes record as indented JSON. An existing object for the same
// date and city is overwritten.
func (w *WeatherStore) StoreWeather(ctx context.Context, date, city string, record models.OutputRecord) (string, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", city, err)
	}
	key := WeatherKey(date, city)
	if err := w.store.Put(ctx, key, data, ContentTypeJSON); err != nil {
		return "", err
	}
	return key, nil
}

// GetWeather reads one city's record. An empty date means today.
func (w *WeatherStore) GetWeather(ctx context.Context, city, date string) (models.OutputRecord, error) {
	if date == "" {
		date = models.CollectionDate(w.now())
	}
	data, err := w.store.Get(ctx, WeatherKey(date, city))
	if err != nil {
		return models.OutputRecord{}, err
	}
	var record models.OutputRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return models.OutputRecord{}, fmt.Errorf("decode %s: %w", WeatherKey(date, city), err)
	}
	return record, nil
}

// ListWeather returns the keys stored for a date. An empty date means today.
func (w *WeatherStore) ListWeather(ctx context.Context, date string) ([]string, error) {
	if date == "" {
		date = models.CollectionDate(w.now())
	}
	return w.store.List(ctx, WeatherPrefix(date))
}

func (w *WeatherStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	return w.store.Get(ctx, key)
}

func (w *WeatherStore) DeleteWeather(ctx context.Context, city, date string) error {
	return w.store.Delete(ctx, WeatherKey(date, city))
}
