package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bobby-s-dev/weather-collector/internal/models"
)

const DefaultTable = "raw_weather"

// RawForecast is one stored city record for one collection date.
type RawForecast struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	CollectedDate string    `gorm:"index;not null" json:"collected_date"`
	City          string    `gorm:"not null" json:"city"`
	Country       string    `json:"country"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	Payload       string    `json:"payload"`
	LoadedAt      time.Time `json:"loaded_at"`
}

func (RawForecast) TableName() string {
	return DefaultTable
}

// Source lists and reads stored weather objects.
type Source interface {
	ListWeather(ctx context.Context, date string) ([]string, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// Loader copies one collection date from object storage into the warehouse.
type Loader struct {
	source Source
	db     *gorm.DB
	table  string
	logger *zap.Logger
	now    func() time.Time
}

func NewLoader(source Source, client *Client, table string, logger *zap.Logger) (*Loader, error) {
	if table == "" {
		table = DefaultTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db := client.DB()
	if db.Dialector.Name() == "clickhouse" {
		db = db.Set("gorm:table_options", "ENGINE=MergeTree() ORDER BY (collected_date, city)")
	}
	if err := db.Table(table).AutoMigrate(&RawForecast{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", table, err)
	}

	return &Loader{source: source, db: client.DB(), table: table, logger: logger, now: time.Now}, nil
}

// Load replaces the rows for date with the objects currently stored for it.
// Objects that cannot be read or decoded are logged and skipped.
func (l *Loader) Load(ctx context.Context, date string) (int, error) {
	keys, err := l.source.ListWeather(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("list objects for %s: %w", date, err)
	}

	loadedAt := l.now().UTC()
	rows := make([]RawForecast, 0, len(keys))
	for _, key := range keys {
		row, err := l.readRow(ctx, key, date, loadedAt)
		if err != nil {
			l.logger.Warn("Skipping stored object", zap.String("key", key), zap.Error(err))
			continue
		}
		rows = append(rows, row)
	}

	// ClickHouse has no transactions; a failed insert leaves the date empty until the next load.
	db := l.db.WithContext(ctx).Table(l.table)
	if err := db.Where("collected_date = ?", date).Delete(&RawForecast{}).Error; err != nil {
		return 0, fmt.Errorf("clear %s for %s: %w", l.table, date, err)
	}
	if len(rows) > 0 {
		if err := l.db.WithContext(ctx).Table(l.table).CreateInBatches(rows, 100).Error; err != nil {
			return 0, fmt.Errorf("insert into %s: %w", l.table, err)
		}
	}

	l.logger.Info("Loaded weather data into warehouse",
		zap.String("date", date),
		zap.String("table", l.table),
		zap.Int("rows", len(rows)),
		zap.Int("objects", len(keys)))
	return len(rows), nil
}

func (l *Loader) readRow(ctx context.Context, key, date string, loadedAt time.Time) (RawForecast, error) {
	data, err := l.source.GetObject(ctx, key)
	if err != nil {
		return RawForecast{}, err
	}

	var record models.OutputRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return RawForecast{}, fmt.Errorf("decode: %w", err)
	}
	if record.Location.City == "" {
		return RawForecast{}, fmt.Errorf("record has no city")
	}

	payload, err := json.Marshal(record.WeatherData)
	if err != nil {
		return RawForecast{}, err
	}

	return RawForecast{
		ID:            uuid.NewString(),
		CollectedDate: date,
		City:          record.Location.City,
		Country:       record.Location.Country,
		Latitude:      record.Location.Coordinates.Lat,
		Longitude:     record.Location.Coordinates.Lon,
		Payload:       string(payload),
		LoadedAt:      loadedAt,
	}, nil
}

// Rows returns the loaded rows for date ordered by city.
func (l *Loader) Rows(ctx context.Context, date string) ([]RawForecast, error) {
	var rows []RawForecast
	err := l.db.WithContext(ctx).Table(l.table).Where("collected_date = ?", date).Order("city").Find(&rows).Error
	return rows, err
}
