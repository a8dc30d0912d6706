// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/hearth/internal/broadcast"
	"github.com/tomtom215/hearth/internal/config"
	"github.com/tomtom215/hearth/internal/ephemeral"
	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/metrics"
	"github.com/tomtom215/hearth/internal/models"
)

// Execution triggers, used as metric and log labels.
const (
	TriggerWorker = "worker"
	TriggerPubSub = "pubsub"
)

var (
	// ErrDuplicate is returned by Execute when the job id was already claimed.
	ErrDuplicate = errors.New("notification already executed")

	// ErrInvalidJob is returned for jobs missing fields execution needs.
	ErrInvalidJob = errors.New("invalid notification job")

	// ErrExecutionFailed is returned when nothing was persisted and no channel succeeded.
	ErrExecutionFailed = errors.New("notification execution failed")
)

// Enqueuer pushes envelopes onto the durable queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, priority models.Priority, env *models.QueueEnvelope) error
}

// Publisher sends a JSON payload on a pub/sub channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

// RecordStore persists executed notifications and serves delivery settings.
type RecordStore interface {
	SaveNotification(ctx context.Context, rec *models.NotificationRecord, ttl time.Duration) error
	GetSettings(ctx context.Context, userID string) (models.NotificationSettings, error)
}

// Claimer is the idempotency guard around Execute.
type Claimer interface {
	Claim(ctx context.Context, id string, dueAt *time.Time) (bool, error)
	Release(ctx context.Context, id string) error
}

// Options configure submission and execution.
type Options struct {
	QueueName       string
	DefaultPriority models.Priority
	MaxAttempts     int
	RecordTTL       time.Duration
	ExecuteTimeout  time.Duration
	FastPathLimit   int
}

// OptionsFromConfig maps application configuration onto dispatcher options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		QueueName:       cfg.Queue.Name,
		DefaultPriority: models.Priority(cfg.Queue.DefaultPriority),
		MaxAttempts:     cfg.Dispatcher.MaxAttempts,
		RecordTTL:       cfg.Dispatcher.RecordTTL,
		ExecuteTimeout:  cfg.Dispatcher.ExecuteTimeout,
	}
}

// Dispatcher accepts submissions and executes jobs reaching it from the
// worker or the pub/sub fast path.
type Dispatcher struct {
	opts     Options
	queue    Enqueuer
	pub      Publisher
	records  RecordStore
	guard    Claimer
	channels map[models.Channel]ChannelDispatcher
	now      func() time.Time

	fastPath chan struct{}
	inflight sync.WaitGroup
}

// New creates a dispatcher with the app and email channels registered.
func New(opts Options, queue Enqueuer, pub Publisher, records RecordStore, guard Claimer) *Dispatcher {
	if opts.DefaultPriority == "" {
		opts.DefaultPriority = models.DefaultPriority
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = models.DefaultMaxAttempts
	}
	if opts.FastPathLimit < 1 {
		opts.FastPathLimit = DefaultFastPathLimit
	}

	d := &Dispatcher{
		opts:     opts,
		queue:    queue,
		pub:      pub,
		records:  records,
		guard:    guard,
		channels: make(map[models.Channel]ChannelDispatcher),
		now:      time.Now,
		fastPath: make(chan struct{}, opts.FastPathLimit),
	}
	d.RegisterChannel(NewAppChannel(pub))
	d.RegisterChannel(NewEmailChannel())
	return d
}

// RegisterChannel installs or replaces the dispatcher for a channel.
func (d *Dispatcher) RegisterChannel(c ChannelDispatcher) {
	d.channels[c.Channel()] = c
}

// DefaultPriority is the bucket used for submissions that name none.
func (d *Dispatcher) DefaultPriority() models.Priority {
	return d.opts.DefaultPriority
}

// Submit assigns an id and creation time, enqueues the job durably and
// publishes it for immediate execution. Both writes are always attempted.
// Only an enqueue failure is returned; a failed publish leaves the worker
// to deliver the durable copy.
func (d *Dispatcher) Submit(ctx context.Context, req *models.SubmitRequest) (*models.NotificationJob, error) {
	if req == nil || req.Data == nil {
		return nil, fmt.Errorf("%w: data is required", ErrInvalidJob)
	}

	priority := d.opts.DefaultPriority
	if req.Priority != "" {
		p, err := models.ParsePriority(req.Priority)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
		}
		priority = p
	}

	job := &models.NotificationJob{
		ID:           uuid.New().String(),
		Type:         req.Type,
		Channels:     req.Channels,
		Data:         *req.Data,
		CreatedAt:    d.now().UTC(),
		ScheduledFor: req.ScheduledFor,
		Priority:     priority,
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}

	ctx = logging.ContextWithJobID(ctx, job.ID)
	log := logging.Ctx(ctx).With().Str("priority", string(priority)).Logger()

	env := models.NewEnvelope(*job, d.opts.MaxAttempts)
	enqueueErr := d.queue.Enqueue(ctx, d.opts.QueueName, priority, &env)
	if enqueueErr != nil {
		log.Error().Err(enqueueErr).Msg("Failed to enqueue notification")
	}

	if err := d.pub.Publish(ctx, broadcast.NewNotificationChannel, job); err != nil {
		log.Warn().Err(err).Msg("Failed to publish notification for immediate execution")
	}

	metrics.RecordSubmission(string(priority), enqueueErr)
	if enqueueErr != nil {
		return nil, fmt.Errorf("enqueue notification %s: %w", job.ID, enqueueErr)
	}

	log.Debug().Str("type", string(job.Type)).Msg("Notification submitted")
	return job, nil
}

// Execute runs a job once: claim, persist, then dispatch each channel.
// It returns ErrDuplicate when another trigger already ran the job.
func (d *Dispatcher) Execute(ctx context.Context, job *models.NotificationJob, trigger string) error {
	start := d.now()
	result := "ok"
	defer func() {
		metrics.RecordExecution(trigger, result, d.now().Sub(start))
	}()

	if verr := job.Validate(); verr != nil {
		result = "invalid"
		return fmt.Errorf("%w: %v", ErrInvalidJob, verr)
	}

	if d.opts.ExecuteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.ExecuteTimeout)
		defer cancel()
	}
	ctx = logging.ContextWithJobID(ctx, job.ID)
	log := logging.Ctx(ctx).With().Str("trigger", trigger).Logger()

	claimed, err := d.guard.Claim(ctx, job.ID, job.ScheduledFor)
	if err != nil {
		result = "failed"
		return fmt.Errorf("claim notification %s: %w", job.ID, err)
	}
	if !claimed {
		result = "duplicate"
		log.Debug().Msg("Notification already executed, skipping")
		return ErrDuplicate
	}

	persistErr := d.persist(ctx, job)

	settings, serr := d.records.GetSettings(ctx, job.Data.UserID)
	if serr != nil {
		log.Warn().Err(serr).Msg("Failed to load notification settings, using defaults")
		settings = models.DefaultSettings(job.Data.UserID)
	}

	var succeeded int
	var channelErrs []error
	for _, ch := range job.Channels {
		if !settings.Allows(ch, job.Type) {
			metrics.RecordChannelDispatch(string(ch), "skipped")
			log.Debug().Str("channel", string(ch)).Msg("Channel disabled by user settings")
			continue
		}
		if cerr := d.dispatch(ctx, ch, job); cerr != nil {
			metrics.RecordChannelDispatch(string(ch), "error")
			log.Error().Err(cerr).Str("channel", string(ch)).Msg("Channel dispatch failed")
			channelErrs = append(channelErrs, cerr)
			continue
		}
		metrics.RecordChannelDispatch(string(ch), "ok")
		succeeded++
	}

	if persistErr != nil && succeeded == 0 && len(channelErrs) > 0 {
		if rerr := d.guard.Release(ctx, job.ID); rerr != nil {
			log.Warn().Err(rerr).Msg("Failed to release idempotency claim")
		}
		result = "failed"
		return fmt.Errorf("%w: %s: %w", ErrExecutionFailed, job.ID, errors.Join(append([]error{persistErr}, channelErrs...)...))
	}

	log.Debug().Int("channels_ok", succeeded).Int("channels_failed", len(channelErrs)).Msg("Notification executed")
	return nil
}

// persist stores the record projection of job. A record with no lifetime
// left is skipped without error.
func (d *Dispatcher) persist(ctx context.Context, job *models.NotificationJob) error {
	rec, ttl := models.NewRecord(job, d.now().UTC(), d.opts.RecordTTL)

	err := d.records.SaveNotification(ctx, &rec, ttl)
	switch {
	case errors.Is(err, ephemeral.ErrExpired):
		metrics.RecordPersist("expired")
		logging.Ctx(ctx).Debug().Msg("Notification expired before persisting")
		return nil
	case err != nil:
		metrics.RecordPersist("error")
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to persist notification")
		return err
	}
	metrics.RecordPersist("ok")
	return nil
}

// dispatch runs one channel dispatcher, converting a panic into an error.
func (d *Dispatcher) dispatch(ctx context.Context, ch models.Channel, job *models.NotificationJob) (err error) {
	c, ok := d.channels[ch]
	if !ok {
		return fmt.Errorf("no dispatcher for channel %q", ch)
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().
				Str("channel", string(ch)).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Channel dispatcher panicked")
			err = fmt.Errorf("channel %s panicked: %v", ch, r)
		}
	}()
	return c.Dispatch(ctx, job)
}
