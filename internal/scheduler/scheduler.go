// Package scheduler runs a feed poll immediately and then on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"edublog/internal/domain"
)

type Poller interface {
	Poll(ctx context.Context) (*domain.PollStats, error)
}

type Config struct {
	Interval time.Duration
	// Timeout bounds a single poll. Zero means Interval.
	Timeout time.Duration
	// OnResult, if set, is called after every poll with its outcome.
	OnResult func(*domain.PollStats, error)
}

type Scheduler struct {
	poller   Poller
	interval time.Duration
	timeout  time.Duration
	onResult func(*domain.PollStats, error)
	logger   *slog.Logger
}

func NewScheduler(poller Poller, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}

	return &Scheduler{
		poller:   poller,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		onResult: cfg.OnResult,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start blocks until ctx is done and returns ctx.Err().
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runPoll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runPoll(ctx)
		}
	}
}

func (s *Scheduler) runPoll(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stats, err := s.poller.Poll(pollCtx)
	if err != nil {
		s.logger.Error("poll failed", "error", err)
	} else {
		s.logger.Debug("poll finished",
			"fetched", stats.Fetched,
			"new", stats.New,
			"duration", stats.Duration,
		)
	}

	if s.onResult != nil {
		s.onResult(stats, err)
	}
}
