package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"
)

// DefaultCron runs the sweep daily at 03:00 UTC.
const DefaultCron = "0 3 * * *"

// retryDelay is how long the scheduler waits after failing to compute the
// next tick.
const retryDelay = 30 * time.Second

// ErrSchedulerRunning is returned by Start when the scheduler is already running.
var ErrSchedulerRunning = errors.New("retention scheduler already running")

// Scheduler runs a Sweeper on a cron schedule.
type Scheduler struct {
	sweeper *Sweeper
	cron    string
	logger  *slog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu      sync.Mutex
	running bool
}

// NewScheduler validates cron and returns a scheduler for sweeper. An empty
// cron means DefaultCron.
func NewScheduler(sweeper *Sweeper, cron string, logger *slog.Logger) (*Scheduler, error) {
	if cron == "" {
		cron = DefaultCron
	}
	if !gronx.IsValid(cron) {
		return nil, fmt.Errorf("invalid sweep cron expression: %q", cron)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sweeper: sweeper,
		cron:    cron,
		logger:  logger,
		now:     time.Now,
		after:   time.After,
	}, nil
}

// Start launches the scheduling goroutine and returns a function that stops
// it. The goroutine also stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) (context.CancelFunc, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrSchedulerRunning
	}
	s.running = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()
		s.run(ctx)
	}()

	s.logger.Info("retention scheduler started", "cron", s.cron)
	return func() {
		cancel()
		<-done
	}, nil
}

// Next returns the first scheduled run strictly after t.
func (s *Scheduler) Next(t time.Time) (time.Time, error) {
	return gronx.NextTickAfter(s.cron, t.UTC(), false)
}

func (s *Scheduler) run(ctx context.Context) {
	for {
		next, err := s.Next(s.now())
		wait := retryDelay
		if err != nil {
			s.logger.Error("failed to compute next sweep", "cron", s.cron, "error", err)
		} else {
			wait = next.Sub(s.now())
			if wait < 0 {
				wait = 0
			}
		}

		select {
		case <-ctx.Done():
			s.logger.Info("retention scheduler stopping")
			return
		case <-s.after(wait):
		}

		if err != nil {
			continue
		}
		if _, err := s.sweeper.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("retention sweep failed", "error", err)
		}
	}
}
