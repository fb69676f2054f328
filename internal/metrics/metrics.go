package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bobby-s-dev/weather-collector/internal/models"
)

// Metrics holds the collector's Prometheus instruments. A nil *Metrics is a no-op.
type Metrics struct {
	registry     *prometheus.Registry
	items        *prometheus.CounterVec
	runs         *prometheus.CounterVec
	tasks        *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	runDuration  prometheus.Histogram
	processed    prometheus.Gauge
	lastComplete prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_collector_items_total",
				Help: "Locations processed per pipeline stage by result.",
			},
			[]string{"stage", "result"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_collector_runs_total",
				Help: "Collection runs by outcome.",
			},
			[]string{"outcome"},
		),
		tasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_collector_pipeline_tasks_total",
				Help: "Scheduled pipeline task attempts by task and result.",
			},
			[]string{"task", "result"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weather_collector_pipeline_task_duration_seconds",
				Help:    "Duration of scheduled pipeline task attempts.",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
			[]string{"task"},
		),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weather_collector_run_duration_seconds",
			Help:    "Duration of collection runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		processed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weather_collector_last_run_processed",
			Help: "Records produced by the most recent collection run.",
		}),
		lastComplete: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weather_collector_last_run_timestamp_seconds",
			Help: "Unix time the most recent collection run finished.",
		}),
	}

	m.registry.MustRegister(m.items, m.runs, m.tasks, m.taskDuration, m.runDuration, m.processed, m.lastComplete)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveStage(stage models.Stage, stats models.StageStats) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(string(stage), "success").Add(float64(stats.Succeeded))
	m.items.WithLabelValues(string(stage), "failure").Add(float64(stats.Failed))
}

func (m *Metrics) ObserveRun(summary models.Summary) {
	if m == nil {
		return
	}
	outcome := "complete"
	if summary.Reason != "" {
		outcome = "empty"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	m.processed.Set(float64(summary.Processed))
	m.lastComplete.Set(float64(summary.FinishedAt.Unix()))
}

func (m *Metrics) ObserveTask(task string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.tasks.WithLabelValues(task, result).Inc()
	m.taskDuration.WithLabelValues(task).Observe(duration.Seconds())
}
