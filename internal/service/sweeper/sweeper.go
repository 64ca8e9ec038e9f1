// Package sweeper periodically expires blood units and emergency requests and
// moves campaigns along their date-driven statuses.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Task is one idempotent sweep. It reports how many records it changed.
type Task struct {
	Name string
	Run  func(ctx context.Context, now time.Time) (int, error)
}

type Sweeper struct {
	tasks    []Task
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func New(interval time.Duration, logger *zap.Logger, tasks ...Task) *Sweeper {
	return &Sweeper{
		tasks:    tasks,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// RunOnce runs every task with the same timestamp. A failing task does not
// stop the others; the first error is returned.
func (s *Sweeper) RunOnce(ctx context.Context) (map[string]int, error) {
	now := s.now()
	counts := make(map[string]int, len(s.tasks))
	var firstErr error
	for _, task := range s.tasks {
		n, err := task.Run(ctx, now)
		counts[task.Name] = n
		if err != nil {
			s.logger.Error("Sweep task failed", zap.String("task", task.Name), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", task.Name, err)
			}
			continue
		}
		if n > 0 {
			s.logger.Info("Sweep task changed records", zap.String("task", task.Name), zap.Int("count", n))
		}
	}
	return counts, firstErr
}

// Start sweeps immediately and then every interval until ctx is done.
func (s *Sweeper) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", s.interval)
	}
	s.logger.Info("Sweeper started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		_, _ = s.RunOnce(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}
