package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrNotRunning is returned by Enqueue before Start or after Stop.
var ErrNotRunning = errors.New("queue not running")

// Job is one unit of background work. Attempt counts failed runs so far.
type Job struct {
	ID       string
	Type     string
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A returned error, or a panic, schedules a retry.
type Handler func(context.Context, Job) error

// Outcome labels each handler run for Config.OnDone.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeRetried   Outcome = "retried"
	OutcomeFailed    Outcome = "failed"
)

// Stats is a point-in-time view of queue activity.
type Stats struct {
	Pending   int   `json:"pending"`
	InFlight  int64 `json:"in_flight"`
	Succeeded int64 `json:"succeeded"`
	Retried   int64 `json:"retried"`
	Failed    int64 `json:"failed"`
}

// Config tunes a Queue. Zero values get defaults in NewQueue.
type Config struct {
	Workers    int
	BufferSize int
	// MaxRetries is the number of re-runs after the first failure.
	MaxRetries int
	// RetryDelay is the first backoff; it doubles per attempt up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	Logger        *zap.Logger
	OnDone        func(job Job, outcome Outcome, elapsed time.Duration)
}

// Queue runs jobs on a fixed pool of goroutines fed by a buffered channel.
// Jobs live only in memory; callers persist their own state and re-enqueue
// unfinished work after a restart.
type Queue struct {
	name    string
	handler Handler
	cfg     Config
	log     *zap.Logger

	jobs chan Job

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup

	inFlight  atomic.Int64
	succeeded atomic.Int64
	retried   atomic.Int64
	failed    atomic.Int64
}

// NewQueue builds a stopped queue.
func NewQueue(name string, handler Handler, cfg Config) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = 30 * cfg.RetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		log:     cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Calling it on a running queue is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.running = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.log.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and waits for running handlers to return. Jobs
// still buffered or waiting for a retry are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.log.Info("queue stopped", zap.Int("dropped", len(q.jobs)))
}

// Enqueue adds a job, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx, running := q.ctx, q.running
	q.mu.Unlock()
	if !running {
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	}
}

// Stats returns counters accumulated since the queue was built.
func (q *Queue) Stats() Stats {
	return Stats{
		Pending:   len(q.jobs),
		InFlight:  q.inFlight.Load(),
		Succeeded: q.succeeded.Load(),
		Retried:   q.retried.Load(),
		Failed:    q.failed.Load(),
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	q.inFlight.Add(1)
	start := time.Now()
	err := q.call(job)
	elapsed := time.Since(start)
	q.inFlight.Add(-1)

	if err == nil {
		q.succeeded.Add(1)
		q.done(job, OutcomeSucceeded, elapsed)
		return
	}
	job.Attempt++
	fields := []zap.Field{zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err)}
	if job.Attempt > q.cfg.MaxRetries {
		q.failed.Add(1)
		q.done(job, OutcomeFailed, elapsed)
		q.log.Error("job failed permanently", fields...)
		return
	}
	q.retried.Add(1)
	q.done(job, OutcomeRetried, elapsed)
	delay := q.backoff(job.Attempt)
	q.log.Warn("job failed, retrying", append(fields, zap.Duration("delay", delay))...)
	time.AfterFunc(delay, func() {
		if err := q.Enqueue(job); err != nil && !errors.Is(err, ErrNotRunning) {
			q.log.Error("requeue failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	})
}

// call runs the handler, turning a panic into an error.
func (q *Queue) call(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return q.handler(q.ctx, job)
}

func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt && delay < q.cfg.MaxRetryDelay; i++ {
		delay *= 2
	}
	if delay > q.cfg.MaxRetryDelay {
		delay = q.cfg.MaxRetryDelay
	}
	return delay
}

func (q *Queue) done(job Job, outcome Outcome, elapsed time.Duration) {
	if q.cfg.OnDone != nil {
		q.cfg.OnDone(job, outcome, elapsed)
	}
}
