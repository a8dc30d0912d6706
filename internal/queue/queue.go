// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/hearth/internal/metrics"
	"github.com/tomtom215/hearth/internal/models"
	"github.com/tomtom215/hearth/internal/store"
)

// ErrMalformedEnvelope is returned by Dequeue when a list entry cannot be decoded.
// The entry has already been removed from the list.
var ErrMalformedEnvelope = errors.New("malformed queue envelope")

// Key returns the list key for a queue bucket.
func Key(name string, priority models.Priority) string {
	return fmt.Sprintf("queue:%s:%s", name, priority)
}

// DeadKey returns the dead letter list key for a queue.
func DeadKey(name string) string {
	return fmt.Sprintf("queue:%s:dead", name)
}

// Queue is a durable FIFO per (name, priority) backed by store lists.
// Items are pushed at the head and popped from the tail.
type Queue struct {
	cmd     *store.Command
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// New creates a queue on the command role.
func New(cmd *store.Command, cfg BreakerConfig) *Queue {
	return &Queue{
		cmd:     cmd,
		breaker: NewCircuitBreaker(cfg),
	}
}

// Enqueue pushes env onto the head of queue:{name}:{priority}.
func (q *Queue) Enqueue(ctx context.Context, name string, priority models.Priority, env *models.QueueEnvelope) error {
	if _, err := models.ParsePriority(string(priority)); err != nil {
		return err
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope %s: %w", env.ID, err)
	}

	_, err = q.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, store.Unavailable("lpush", q.cmd.LPush(ctx, Key(name, priority), payload).Err())
	})
	err = breakerError(err)
	metrics.RecordQueueOperation("enqueue", string(priority), err)
	return err
}

// Dequeue pops the oldest envelope from queue:{name}:{priority}, blocking up to timeout.
// It returns nil, nil when the timeout elapses with nothing to pop.
// A timeout of zero or less polls without blocking.
func (q *Queue) Dequeue(ctx context.Context, name string, priority models.Priority, timeout time.Duration) (*models.QueueEnvelope, error) {
	key := Key(name, priority)

	var raw string
	if timeout <= 0 {
		v, err := q.cmd.RPop(ctx, key).Result()
		if err != nil {
			return nil, q.emptyOrError(priority, err)
		}
		raw = v
	} else {
		res, err := q.cmd.BRPop(ctx, timeout, key).Result()
		if err != nil {
			return nil, q.emptyOrError(priority, err)
		}
		raw = res[1]
	}

	metrics.RecordQueueOperation("dequeue", string(priority), nil)

	var env models.QueueEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Type != models.EnvelopeType || env.Data.ID == "" {
		return nil, fmt.Errorf("%w: type=%q id=%q", ErrMalformedEnvelope, env.Type, env.Data.ID)
	}
	return &env, nil
}

func (q *Queue) emptyOrError(priority models.Priority, err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	err = store.Unavailable("dequeue", err)
	metrics.RecordQueueOperation("dequeue", string(priority), err)
	return err
}

// Length returns the number of envelopes in queue:{name}:{priority}.
func (q *Queue) Length(ctx context.Context, name string, priority models.Priority) (int64, error) {
	n, err := q.cmd.LLen(ctx, Key(name, priority)).Result()
	if err != nil {
		return 0, store.Unavailable("llen", err)
	}
	metrics.SetQueueDepth(name, string(priority), n)
	return n, nil
}

// DeadLetter pushes env onto queue:{name}:dead.
func (q *Queue) DeadLetter(ctx context.Context, name string, env *models.QueueEnvelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope %s: %w", env.ID, err)
	}
	if err := q.cmd.LPush(ctx, DeadKey(name), payload).Err(); err != nil {
		return store.Unavailable("dead letter", err)
	}
	metrics.RecordDeadLetter(name)
	return nil
}

// DeadLength returns the number of dead-lettered envelopes for name.
func (q *Queue) DeadLength(ctx context.Context, name string) (int64, error) {
	n, err := q.cmd.LLen(ctx, DeadKey(name)).Result()
	if err != nil {
		return 0, store.Unavailable("llen dead", err)
	}
	return n, nil
}

// BreakerState reports the enqueue circuit breaker state.
func (q *Queue) BreakerState() string {
	return q.breaker.State().String()
}
