package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectOutcomes(buffer int) (chan Outcome, func(Job, Outcome, time.Duration)) {
	outcomes := make(chan Outcome, buffer)
	return outcomes, func(_ Job, outcome Outcome, _ time.Duration) { outcomes <- outcome }
}

func nextOutcome(t *testing.T, outcomes <-chan Outcome) Outcome {
	t.Helper()
	select {
	case outcome := <-outcomes:
		return outcome
	case <-time.After(2 * time.Second):
		t.Fatal("no outcome reported")
		return ""
	}
}

func TestQueueRejectsWhenNotRunning(t *testing.T) {
	q := NewQueue("reports", func(context.Context, Job) error { return nil }, Config{})
	assert.ErrorIs(t, q.Enqueue(Job{ID: "job-1"}), ErrNotRunning)

	q.Start(context.Background())
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(Job{ID: "job-1"}), ErrNotRunning)
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	outcomes, onDone := collectOutcomes(4)
	q := NewQueue("reports", func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Attempt)
		if job.Attempt == 0 {
			return errors.New("transient")
		}
		return nil
	}, Config{MaxRetries: 3, RetryDelay: 5 * time.Millisecond, OnDone: onDone})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "payroll"}))
	assert.Equal(t, OutcomeRetried, nextOutcome(t, outcomes))
	assert.Equal(t, OutcomeSucceeded, nextOutcome(t, outcomes))

	mu.Lock()
	assert.Equal(t, []int{0, 1}, seen)
	mu.Unlock()
	stats := q.Stats()
	assert.Equal(t, int64(1), stats.Succeeded)
	assert.Equal(t, int64(1), stats.Retried)
	assert.Equal(t, int64(0), stats.Failed)
	assert.Equal(t, int64(0), stats.InFlight)
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	outcomes, onDone := collectOutcomes(8)
	q := NewQueue("reports", func(context.Context, Job) error { return errors.New("boom") }, Config{
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
		OnDone:     onDone,
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-2"}))
	assert.Equal(t, OutcomeRetried, nextOutcome(t, outcomes))
	assert.Equal(t, OutcomeFailed, nextOutcome(t, outcomes))
	assert.Equal(t, int64(1), q.Stats().Failed)
}

func TestQueueTreatsPanicAsFailure(t *testing.T) {
	outcomes, onDone := collectOutcomes(2)
	q := NewQueue("reports", func(context.Context, Job) error { panic("nil export") }, Config{OnDone: onDone})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-3"}))
	assert.Equal(t, OutcomeFailed, nextOutcome(t, outcomes))
}

func TestQueueBackoffDoublesAndCaps(t *testing.T) {
	q := NewQueue("reports", nil, Config{RetryDelay: time.Second, MaxRetryDelay: 5 * time.Second})
	assert.Equal(t, time.Second, q.backoff(1))
	assert.Equal(t, 2*time.Second, q.backoff(2))
	assert.Equal(t, 4*time.Second, q.backoff(3))
	assert.Equal(t, 5*time.Second, q.backoff(4))
	assert.Equal(t, 5*time.Second, q.backoff(10))
}
