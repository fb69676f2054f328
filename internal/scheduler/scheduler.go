package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Scheduler struct {
	runner     *Runner
	logger     *zap.Logger
	schedule   string
	runOnStart bool
	cron       *cron.Cron
	entryID    cron.EntryID
	running    bool
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewScheduler(runner *Runner, schedule string, runOnStart bool, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:     runner,
		logger:     logger,
		schedule:   schedule,
		runOnStart: runOnStart,
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger.Sugar()}))),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	id, err := s.cron.AddFunc(s.schedule, func() { s.execute("schedule") })
	if err != nil {
		return err
	}
	s.entryID = id
	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", s.cron.Entry(id).Next))

	if s.runOnStart {
		s.ForceRun()
	}
	return nil
}

func (s *Scheduler) execute(trigger string) {
	startTime := time.Now()
	if _, err := s.runner.Run(s.ctx, trigger); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			s.logger.Debug("Skipping pipeline run, previous run still in progress", zap.String("trigger", trigger))
			return
		}
		s.logger.Error("Scheduled pipeline run failed",
			zap.String("trigger", trigger),
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)))
	}
}

// Stop halts the schedule, cancels an in-flight run and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// ForceRun starts a pipeline run in the background. It reports false when a run is already in progress.
func (s *Scheduler) ForceRun() bool {
	if s.runner.Running() {
		return false
	}
	s.logger.Info("Manually triggering pipeline run")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute("manual")
	}()
	return true
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":     s.running,
		"schedule":    s.schedule,
		"pipeline":    s.runner.Pipeline().Name,
		"in_progress": s.runner.Running(),
	}
	if s.running {
		entry := s.cron.Entry(s.entryID)
		status["next_run"] = entry.Next
		status["last_run"] = entry.Prev
	}
	return status
}

func (s *Scheduler) Runner() *Runner {
	return s.runner
}

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
