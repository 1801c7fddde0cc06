// Package scanner runs the periodic overdue sweep.
package scanner

import (
	"context"
	"log"
	"time"

	"libraryapp/pkg/clock"
)

// Engine is the part of the lifecycle service the scanner drives.
type Engine interface {
	ScanOverdue(ctx context.Context, today time.Time) (int, error)
}

type Scanner struct {
	engine   Engine
	clock    clock.Clock
	interval time.Duration
	logger   *log.Logger
}

func New(engine Engine, clk clock.Clock, interval time.Duration, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scanner{engine: engine, clock: clk, interval: interval, logger: logger}
}

// RunOnce performs a single sweep for the current day.
func (s *Scanner) RunOnce(ctx context.Context) (int, error) {
	n, err := s.engine.ScanOverdue(ctx, s.clock.Now())
	if err != nil {
		s.logger.Printf("Overdue scan failed: %v", err)
		return 0, err
	}
	return n, nil
}

// Run sweeps immediately and then every interval until ctx is done.
// Failed sweeps are logged and retried on the next tick.
func (s *Scanner) Run(ctx context.Context) {
	s.logger.Printf("Overdue scanner started, interval %s", s.interval)
	_, _ = s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Printf("Overdue scanner stopped")
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}
