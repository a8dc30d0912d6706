// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/tomtom215/hearth/internal/config"
	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/metrics"
	"github.com/tomtom215/hearth/internal/models"
	"github.com/tomtom215/hearth/internal/queue"
)

// WorkQueue is the durable queue surface the worker drains.
type WorkQueue interface {
	Enqueue(ctx context.Context, name string, priority models.Priority, env *models.QueueEnvelope) error
	Dequeue(ctx context.Context, name string, priority models.Priority, timeout time.Duration) (*models.QueueEnvelope, error)
	DeadLetter(ctx context.Context, name string, env *models.QueueEnvelope) error
}

// WorkerOptions configure the polling worker.
type WorkerOptions struct {
	QueueName      string
	Priority       models.Priority
	PollInterval   time.Duration
	DequeueTimeout time.Duration
}

// WorkerOptionsFromConfig maps application configuration onto worker options.
func WorkerOptionsFromConfig(cfg *config.Config) WorkerOptions {
	return WorkerOptions{
		QueueName:      cfg.Queue.Name,
		Priority:       models.Priority(cfg.ResolvedWorkerPriority()),
		PollInterval:   cfg.Dispatcher.PollInterval,
		DequeueTimeout: cfg.Dispatcher.DequeueTimeout,
	}
}

// TickOutcome describes what one worker tick did.
type TickOutcome string

const (
	TickEmpty       TickOutcome = "empty"
	TickExecuted    TickOutcome = "executed"
	TickDuplicate   TickOutcome = "duplicate"
	TickRescheduled TickOutcome = "rescheduled"
	TickRetried     TickOutcome = "retried"
	TickDead        TickOutcome = "dead"
	TickMalformed   TickOutcome = "malformed"
	TickError       TickOutcome = "error"
)

// Worker drains one queue bucket, at most one job per tick.
type Worker struct {
	d     *Dispatcher
	queue WorkQueue
	opts  WorkerOptions
	now   func() time.Time

	processing atomic.Bool
}

// NewWorker creates a worker executing through d.
func NewWorker(d *Dispatcher, q WorkQueue, opts WorkerOptions) *Worker {
	if opts.Priority == "" {
		opts.Priority = d.DefaultPriority()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	return &Worker{d: d, queue: q, opts: opts, now: time.Now}
}

// Priority is the bucket this worker polls.
func (w *Worker) Priority() models.Priority {
	return w.opts.Priority
}

// IsProcessing reports whether the polling loop is running.
func (w *Worker) IsProcessing() bool {
	return w.processing.Load()
}

// Serve implements suture.Service. It ticks every PollInterval until ctx ends.
func (w *Worker) Serve(ctx context.Context) error {
	w.processing.Store(true)
	defer w.processing.Store(false)

	logging.Info().
		Str("queue", w.opts.QueueName).
		Str("priority", string(w.opts.Priority)).
		Dur("interval", w.opts.PollInterval).
		Msg("Notification worker started")

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Notification worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (w *Worker) String() string {
	return "notification-worker"
}

// Tick dequeues at most one envelope and handles it.
func (w *Worker) Tick(ctx context.Context) TickOutcome {
	outcome := w.tick(ctx)
	metrics.RecordWorkerTick(string(outcome))
	return outcome
}

func (w *Worker) tick(ctx context.Context) TickOutcome {
	env, err := w.queue.Dequeue(ctx, w.opts.QueueName, w.opts.Priority, w.opts.DequeueTimeout)
	if err != nil {
		if errors.Is(err, queue.ErrMalformedEnvelope) {
			logging.Warn().Err(err).Str("queue", w.opts.QueueName).Msg("Dropped malformed queue entry")
			return TickMalformed
		}
		if ctx.Err() == nil {
			logging.Error().Err(err).Str("queue", w.opts.QueueName).Msg("Failed to dequeue notification")
		}
		return TickError
	}
	if env == nil {
		return TickEmpty
	}

	job := &env.Data
	if job.Priority == "" {
		job.Priority = env.Priority
	}
	ctx = logging.ContextWithJobID(ctx, job.ID)
	log := logging.Ctx(ctx).With().Int("attempt", env.Attempts+1).Logger()

	if !job.IsDue(w.now()) {
		if err := w.queue.Enqueue(ctx, w.opts.QueueName, w.opts.Priority, env); err != nil {
			log.Error().Err(err).Time("scheduled_for", *job.ScheduledFor).Msg("Failed to re-enqueue scheduled notification")
			return TickError
		}
		metrics.RecordQueueOperation("requeue", string(w.opts.Priority), nil)
		log.Debug().Time("scheduled_for", *job.ScheduledFor).Msg("Notification not due, re-enqueued")
		return TickRescheduled
	}

	err = w.d.Execute(ctx, job, TriggerWorker)
	switch {
	case err == nil:
		return TickExecuted
	case errors.Is(err, ErrDuplicate):
		return TickDuplicate
	case errors.Is(err, ErrInvalidJob):
		env.LastError = err.Error()
		return w.deadLetter(ctx, env)
	}

	env.Attempts++
	env.LastError = err.Error()
	if env.Exhausted() {
		log.Warn().Err(err).Int("max_attempts", env.MaxAttempts).Msg("Notification failed on final attempt")
		return w.deadLetter(ctx, env)
	}

	if rerr := w.queue.Enqueue(ctx, w.opts.QueueName, w.opts.Priority, env); rerr != nil {
		log.Error().Err(rerr).Msg("Failed to re-enqueue failed notification")
		return TickError
	}
	metrics.RecordQueueOperation("requeue", string(w.opts.Priority), nil)
	log.Warn().Err(err).Int("max_attempts", env.MaxAttempts).Msg("Notification failed, will retry")
	return TickRetried
}

func (w *Worker) deadLetter(ctx context.Context, env *models.QueueEnvelope) TickOutcome {
	if err := w.queue.DeadLetter(ctx, w.opts.QueueName, env); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to dead-letter notification")
		return TickError
	}
	logging.Ctx(ctx).Warn().Str("last_error", env.LastError).Msg("Notification dead-lettered")
	return TickDead
}
