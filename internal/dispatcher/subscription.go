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

	"github.com/goccy/go-json"

	"github.com/tomtom215/hearth/internal/broadcast"
	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/models"
)

// ErrMalformedMessage is returned for pub/sub payloads that are not a job.
var ErrMalformedMessage = errors.New("malformed notification message")

// DefaultFastPathLimit bounds concurrent fast-path executions when
// Options.FastPathLimit is unset.
const DefaultFastPathLimit = 32

// ChannelSubscriber registers exact-channel handlers, satisfied by *broadcast.Router.
type ChannelSubscriber interface {
	Subscribe(channel string, h broadcast.Handler) error
}

// Attach subscribes the dispatcher to the new-notification channel. Jobs
// execute off the router's receive loop, so user and family fanout on the
// same connection is not held behind a slow Execute. Once FastPathLimit
// executions are in flight the receive loop waits for a slot.
func (d *Dispatcher) Attach(sub ChannelSubscriber) error {
	return sub.Subscribe(broadcast.NewNotificationChannel, d.handleInBackground)
}

// HandleNewNotification executes a job received on the fast path. Duplicates
// are not errors; failures are never retried on this path.
func (d *Dispatcher) HandleNewNotification(ctx context.Context, msg broadcast.Message) error {
	job, err := decodeJob(msg)
	if err != nil {
		return err
	}
	return d.executeFastPath(ctx, job)
}

// Wait blocks until every fast-path execution started by Attach has returned.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// handleInBackground decodes on the receive loop and executes on its own goroutine.
func (d *Dispatcher) handleInBackground(ctx context.Context, msg broadcast.Message) error {
	job, err := decodeJob(msg)
	if err != nil {
		return err
	}

	select {
	case d.fastPath <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		defer func() { <-d.fastPath }()

		jobCtx := logging.ContextWithJobID(ctx, job.ID)
		defer func() {
			if r := recover(); r != nil {
				logging.Ctx(jobCtx).Error().
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Msg("Fast-path execution panicked")
			}
		}()

		if err := d.executeFastPath(jobCtx, job); err != nil {
			logging.Ctx(jobCtx).Warn().Err(err).Msg("Fast-path execution failed; worker will retry from the queue")
		}
	}()
	return nil
}

func (d *Dispatcher) executeFastPath(ctx context.Context, job *models.NotificationJob) error {
	err := d.Execute(ctx, job, TriggerPubSub)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	if errors.Is(err, ErrInvalidJob) {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return err
}

func decodeJob(msg broadcast.Message) (*models.NotificationJob, error) {
	var job models.NotificationJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return &job, nil
}
