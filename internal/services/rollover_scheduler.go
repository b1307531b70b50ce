package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gastos/internal/log"
)

// Roller is the part of LedgerService the scheduler drives.
type Roller interface {
	Rollover(ctx context.Context) (RolloverResult, error)
}

// RolloverScheduler runs the idempotent rollover on a fixed interval so a
// month turns over even when nobody opens the chat.
type RolloverScheduler struct {
	roller   Roller
	interval time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	running bool
	runs    int
}

func NewRolloverScheduler(roller Roller, interval time.Duration, logger *log.Logger) *RolloverScheduler {
	if logger == nil {
		logger = log.Default(log.ComponentRollover)
	}
	return &RolloverScheduler{roller: roller, interval: interval, logger: logger}
}

// Run rolls over once immediately and then on every tick until ctx is done.
// It returns ctx.Err() on shutdown; failed passes are logged and retried on
// the next tick.
func (s *RolloverScheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("rollover interval must be positive, got %s", s.interval)
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("rollover scheduler is already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "Rollover scheduler started", "interval", s.interval)
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Rollover scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *RolloverScheduler) tick(ctx context.Context) {
	res, err := s.roller.Rollover(ctx)
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled rollover failed", log.FieldError, err)
		return
	}
	if res.Changed() {
		s.logger.InfoContext(ctx, "Scheduled rollover changed the ledger",
			log.FieldPeriod, string(res.Period),
			"decremented", res.Decremented,
			"pruned", res.Pruned)
	}
}

// Runs returns how many passes have executed.
func (s *RolloverScheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *RolloverScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
