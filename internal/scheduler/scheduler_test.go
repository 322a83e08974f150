package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edublog/internal/domain"
)

type countingPoller struct {
	calls atomic.Int32
	err   error
}

func (p *countingPoller) Poll(ctx context.Context) (*domain.PollStats, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return &domain.PollStats{Fetched: 2, New: 1}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestScheduler_PollsImmediatelyAndOnTick(t *testing.T) {
	poller := &countingPoller{}
	results := make(chan *domain.PollStats, 16)

	sched := NewScheduler(poller, Config{
		Interval: 10 * time.Millisecond,
		OnResult: func(stats *domain.PollStats, err error) {
			assert.NoError(t, err)
			results <- stats
		},
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case stats := <-results:
			assert.Equal(t, 1, stats.New)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for poll")
		}
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	assert.GreaterOrEqual(t, poller.calls.Load(), int32(3))
}

func TestScheduler_ReportsErrors(t *testing.T) {
	pollErr := errors.New("backend down")
	poller := &countingPoller{err: pollErr}
	errs := make(chan error, 16)

	sched := NewScheduler(poller, Config{
		Interval: time.Hour,
		OnResult: func(stats *domain.PollStats, err error) {
			assert.Nil(t, stats)
			errs <- err
		},
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, pollErr)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for poll")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestScheduler_TimeoutBoundsPoll(t *testing.T) {
	var deadline time.Time
	polled := make(chan struct{})

	poller := pollerFunc(func(ctx context.Context) (*domain.PollStats, error) {
		deadline, _ = ctx.Deadline()
		close(polled)
		return &domain.PollStats{}, nil
	})

	sched := NewScheduler(poller, Config{Interval: time.Hour, Timeout: time.Second}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	start := time.Now()
	go func() { done <- sched.Start(ctx) }()

	<-polled
	cancel()
	<-done

	assert.WithinDuration(t, start.Add(time.Second), deadline, 500*time.Millisecond)
}

type pollerFunc func(ctx context.Context) (*domain.PollStats, error)

func (f pollerFunc) Poll(ctx context.Context) (*domain.PollStats, error) {
	return f(ctx)
}
