package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/collector"
	"github.com/bobby-s-dev/weather-collector/internal/config"
	"github.com/bobby-s-dev/weather-collector/internal/models"
	"github.com/bobby-s-dev/weather-collector/internal/storage"
	"github.com/bobby-s-dev/weather-collector/internal/warehouse"
)

var errStorageDisabled = errors.New("object storage is not configured")

func newLoadCommand(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load one day of stored weather data into the warehouse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" {
				date = models.CollectionDate(time.Now())
			}
			if _, err := time.Parse(time.DateOnly, date); err != nil {
				return err
			}

			store := collector.NewStore(cfg, logger)
			if store == nil {
				return errStorageDisabled
			}

			n, err := (&warehouseLoader{cfg: cfg, store: store, logger: logger}).Load(cmd.Context(), date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d records for %s into %s\n", n, date, cfg.Warehouse.Table)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "collection date to load, YYYY-MM-DD (defaults to today)")

	return cmd
}

// warehouseLoader connects to the warehouse for every load so a database
// outage only fails the load attempt.
type warehouseLoader struct {
	cfg    *config.Config
	store  *storage.WeatherStore
	logger *zap.Logger
}

func (l *warehouseLoader) Load(ctx context.Context, date string) (int, error) {
	if l.store == nil {
		return 0, errStorageDisabled
	}

	db, err := warehouse.OpenClickHouse(warehouse.Config{
		Host:     l.cfg.Warehouse.Host,
		Port:     l.cfg.Warehouse.Port,
		User:     l.cfg.Warehouse.User,
		Password: l.cfg.Warehouse.Password,
		Database: l.cfg.Warehouse.Database,
	})
	if err != nil {
		return 0, err
	}
	client := warehouse.NewClient(db, l.logger)
	defer func() {
		if err := client.Close(); err != nil {
			l.logger.Warn("Failed to close warehouse connection", zap.Error(err))
		}
	}()

	loader, err := warehouse.NewLoader(l.store, client, l.cfg.Warehouse.Table, l.logger)
	if err != nil {
		return 0, err
	}
	return loader.Load(ctx, date)
}
