package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rewired-gh/cinestat/internal/logger"
)

// runTimeout bounds a single scheduled run.
const runTimeout = 5 * time.Minute

// Scheduler reruns a pipeline on a cron schedule and publishes each
// successful result.
type Scheduler struct {
	pipeline  *Pipeline
	publish   func(*Result)
	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
	runMu     sync.Mutex // serializes runs
	cancel    context.CancelFunc
}

// NewScheduler creates a scheduler. publish receives every successful result.
func NewScheduler(p *Pipeline, publish func(*Result)) *Scheduler {
	return &Scheduler{
		pipeline: p,
		publish:  publish,
	}
}

// Start schedules the pipeline with a standard cron spec or descriptor. A
// stopped scheduler may be started again with a new spec.
func (s *Scheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.tick(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule report run %q: %w", spec, err)
	}
	s.cron, s.cancel = c, cancel
	s.cron.Start()
	s.isRunning = true
	logger.Info("Report runs scheduled with cron expression '%s'", spec)
	return nil
}

// Stop cancels any run in flight and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.isRunning = false
	logger.Info("Scheduler stopped")
}

// RunNow runs the pipeline once and publishes the result on success.
func (s *Scheduler) RunNow(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	res, err := s.pipeline.Run(ctx)
	if err != nil {
		return err
	}
	if s.publish != nil {
		s.publish(res)
	}
	return nil
}

func (s *Scheduler) tick(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, runTimeout)
	defer cancel()

	if err := s.RunNow(ctx); err != nil {
		logger.Error("Scheduled report run failed: %v", err)
	}
}
