// Package scheduler runs deferred publishing work. A single goroutine polls
// the schedule list and hands due entries to the publishing service.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ScheduleRunner executes due publishing schedules. Implemented by the
// publishing service.
type ScheduleRunner interface {
	RunDueSchedules(ctx context.Context, now time.Time) (int, error)
}

// Config holds the runner's tunables.
type Config struct {
	Enabled      bool
	PollInterval time.Duration
}

// Runner polls for due schedules on a fixed interval.
type Runner struct {
	config Config
	runner ScheduleRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	nowFn func() time.Time
}

// NewRunner creates a schedule runner
func NewRunner(config Config, runner ScheduleRunner, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 30 * time.Second
	}
	return &Runner{
		config: config,
		runner: runner,
		logger: logger,
		nowFn:  time.Now,
	}
}

// Start starts the polling loop. Starting a disabled or already running
// runner is a no-op.
func (r *Runner) Start(ctx context.Context) error {
	if !r.config.Enabled {
		r.logger.Info("Schedule runner disabled")
		return nil
	}

	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.runLoop(ctx)

	r.logger.Info("Schedule runner started",
		zap.Duration("poll_interval", r.config.PollInterval),
	)
	return nil
}

// Stop gracefully stops the polling loop
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Schedule runner stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("Schedule runner stop timed out")
		return ctx.Err()
	}
}

func (r *Runner) runLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick runs one poll cycle
func (r *Runner) tick(ctx context.Context) {
	ran, err := r.runner.RunDueSchedules(ctx, r.nowFn())
	if err != nil {
		r.logger.Error("Schedule poll failed", zap.Error(err))
		return
	}
	if ran > 0 {
		r.logger.Info("Due schedules executed", zap.Int("count", ran))
	}
}
