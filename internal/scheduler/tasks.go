package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/collector"
	"github.com/bobby-s-dev/weather-collector/internal/models"
)

type WeatherCollector interface {
	Run(ctx context.Context, locationsFile string) (collector.Result, error)
}

type WarehouseLoader interface {
	Load(ctx context.Context, date string) (int, error)
}

// CollectedDate hands the date a collect run stored under to the load task.
type CollectedDate struct {
	mu   sync.Mutex
	date string
}

func (d *CollectedDate) Set(date string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.date = date
	d.mu.Unlock()
}

func (d *CollectedDate) Get() string {
	if d == nil {
		return ""
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.date
}

func CollectTask(c WeatherCollector, collected *CollectedDate, logger *zap.Logger) TaskFunc {
	return func(ctx context.Context) error {
		result, err := c.Run(ctx, "")
		if err != nil {
			return err
		}
		collected.Set(result.Summary.Date)
		logger.Info("Collect task finished",
			zap.String("date", result.Summary.Date),
			zap.Int("processed", result.Summary.Processed),
			zap.Int("store_failures", result.Summary.Store.Failed))
		return nil
	}
}

// LoadTask loads the objects of the last collected date into the warehouse,
// or today's when nothing has been collected yet.
func LoadTask(loader WarehouseLoader, collected *CollectedDate, now func() time.Time, logger *zap.Logger) TaskFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		date := collected.Get()
		if date == "" {
			date = models.CollectionDate(now())
		}
		n, err := loader.Load(ctx, date)
		if err != nil {
			return err
		}
		logger.Info("Load task finished", zap.String("date", date), zap.Int("rows", n))
		return nil
	}
}

// TransformTask runs the SQL transform tool as an external command in dir.
func TransformTask(command, dir string, logger *zap.Logger) TaskFunc {
	return func(ctx context.Context) error {
		args := strings.Fields(command)
		if len(args) == 0 {
			logger.Info("No transform command configured, skipping")
			return nil
		}

		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Dir = dir
		var output bytes.Buffer
		cmd.Stdout = &output
		cmd.Stderr = &output

		err := cmd.Run()
		logger.Debug("Transform output", zap.String("command", command), zap.String("output", output.String()))
		if err != nil {
			return fmt.Errorf("%s: %w: %s", command, err, strings.TrimSpace(lastLines(output.String(), 5)))
		}
		logger.Info("Transform task finished", zap.String("command", command))
		return nil
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
