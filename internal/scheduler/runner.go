package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/metrics"
)

var ErrAlreadyRunning = errors.New("pipeline run already in progress")

const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"

	historySize = 50
)

// TaskFunc is one unit of pipeline work.
type TaskFunc func(ctx context.Context) error

type TaskRun struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Attempts int           `json:"attempts"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

type Run struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Tasks      []TaskRun `json:"tasks"`
}

// Runner executes a pipeline with per-task retries and keeps a short run history.
type Runner struct {
	pipeline Pipeline
	tasks    map[string]TaskFunc
	metrics  *metrics.Metrics
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	running bool
	history []Run
}

func NewRunner(p Pipeline, tasks map[string]TaskFunc, m *metrics.Metrics, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, spec := range p.Tasks {
		if tasks[spec.Name] == nil {
			return nil, fmt.Errorf("no implementation for task %q", spec.Name)
		}
	}
	return &Runner{
		pipeline: p,
		tasks:    tasks,
		metrics:  m,
		logger:   logger,
		sleep:    sleepContext,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (r *Runner) Pipeline() Pipeline {
	return r.pipeline
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// History returns past runs, newest first.
func (r *Runner) History() []Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Run, len(r.history))
	for i, run := range r.history {
		out[len(r.history)-1-i] = run
	}
	return out
}

// Run executes every task in order and stops at the first task that exhausts its attempts.
func (r *Runner) Run(ctx context.Context, trigger string) (Run, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return Run{}, ErrAlreadyRunning
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	run := Run{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	logger := r.logger.With(zap.String("pipeline", r.pipeline.Name), zap.String("run_id", run.ID))
	logger.Info("Starting pipeline run", zap.String("trigger", trigger))

	var runErr error
	for _, spec := range r.pipeline.Tasks {
		if runErr != nil {
			run.Tasks = append(run.Tasks, TaskRun{Name: spec.Name, Status: StatusSkipped})
			continue
		}

		taskRun := r.runTask(ctx, logger, spec)
		run.Tasks = append(run.Tasks, taskRun)
		if taskRun.Status == StatusFailed {
			runErr = fmt.Errorf("task %s failed after %d attempts: %s", spec.Name, taskRun.Attempts, taskRun.Error)
		}
	}

	run.FinishedAt = time.Now()
	run.Status = StatusSuccess
	if runErr != nil {
		run.Status = StatusFailed
		logger.Error("Pipeline run failed", zap.Error(runErr), zap.Duration("duration", run.FinishedAt.Sub(run.StartedAt)))
	} else {
		logger.Info("Pipeline run completed", zap.Duration("duration", run.FinishedAt.Sub(run.StartedAt)))
	}

	r.mu.Lock()
	r.history = append(r.history, run)
	if len(r.history) > historySize {
		r.history = r.history[len(r.history)-historySize:]
	}
	r.mu.Unlock()

	return run, runErr
}

func (r *Runner) runTask(ctx context.Context, logger *zap.Logger, spec TaskSpec) TaskRun {
	taskRun := TaskRun{Name: spec.Name}
	task := r.tasks[spec.Name]
	started := time.Now()

	for attempt := 1; attempt <= spec.Attempts; attempt++ {
		if attempt > 1 {
			logger.Info("Retrying task",
				zap.String("task", spec.Name),
				zap.Int("attempt", attempt),
				zap.Duration("delay", spec.RetryDelay))
			if err := r.sleep(ctx, spec.RetryDelay); err != nil {
				taskRun.Error = err.Error()
				break
			}
		}

		taskRun.Attempts = attempt
		attemptStart := time.Now()
		err := task(ctx)
		r.metrics.ObserveTask(spec.Name, err, time.Since(attemptStart))
		if err == nil {
			taskRun.Status = StatusSuccess
			taskRun.Error = ""
			taskRun.Duration = time.Since(started)
			return taskRun
		}

		taskRun.Error = err.Error()
		logger.Warn("Task attempt failed",
			zap.String("task", spec.Name),
			zap.Int("attempt", attempt),
			zap.Int("attempts", spec.Attempts),
			zap.Error(err))
	}

	taskRun.Status = StatusFailed
	taskRun.Duration = time.Since(started)
	return taskRun
}
