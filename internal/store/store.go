// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/hearth/internal/config"
	"github.com/tomtom215/hearth/internal/logging"
)

// ErrUnavailable marks connection and command failures of the backing store.
var ErrUnavailable = errors.New("backing store unavailable")

// Unavailable wraps err so callers can match it with errors.Is(err, ErrUnavailable).
// redis.Nil and nil pass through untouched.
func Unavailable(op string, err error) error {
	if err == nil || errors.Is(err, redis.Nil) || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// Command is the role used for every ordinary command (lists, strings, sets, sorted sets).
type Command struct {
	*redis.Client
}

// Publisher is the role used for PUBLISH only.
type Publisher struct {
	client *redis.Client
}

// Publish sends payload on channel and returns the number of receivers.
func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	n, err := p.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return 0, Unavailable("publish "+channel, err)
	}
	return n, nil
}

// Subscriber is the role used for SUBSCRIBE and PSUBSCRIBE. A connection in
// subscriber mode cannot issue ordinary commands, so it gets its own client.
type Subscriber struct {
	client *redis.Client
}

// Subscribe opens a pubsub connection subscribed to channels.
func (s *Subscriber) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return s.client.Subscribe(ctx, channels...)
}

// PSubscribe opens a pubsub connection subscribed to glob patterns.
func (s *Subscriber) PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub {
	return s.client.PSubscribe(ctx, patterns...)
}

// Store holds the three long-lived role handles for one Redis deployment.
type Store struct {
	Command    *Command
	Publisher  *Publisher
	Subscriber *Subscriber
}

// Options builds go-redis options from configuration.
func Options(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	}
}

// New creates the three role clients without contacting the server.
func New(opts *redis.Options) *Store {
	command := *opts

	// Publisher and subscriber need few connections.
	publisher := *opts
	publisher.PoolSize = 2

	subscriber := *opts
	subscriber.PoolSize = 2

	return &Store{
		Command:    &Command{Client: redis.NewClient(&command)},
		Publisher:  &Publisher{client: redis.NewClient(&publisher)},
		Subscriber: &Subscriber{client: redis.NewClient(&subscriber)},
	}
}

// Open creates the three role clients and pings each of them.
func Open(ctx context.Context, opts *redis.Options) (*Store, error) {
	s := New(opts)
	if err := s.Ping(ctx); err != nil {
		if closeErr := s.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Failed to close store after failed open")
		}
		return nil, err
	}

	logging.Info().
		Str("addr", opts.Addr).
		Int("db", opts.DB).
		Msg("Connected to backing store (command, publisher, subscriber)")
	return s, nil
}

// Ping checks every role.
func (s *Store) Ping(ctx context.Context) error {
	roles := []struct {
		name   string
		client *redis.Client
	}{
		{"command", s.Command.Client},
		{"publisher", s.Publisher.client},
		{"subscriber", s.Subscriber.client},
	}
	for _, role := range roles {
		if err := role.client.Ping(ctx).Err(); err != nil {
			return Unavailable("ping "+role.name, err)
		}
	}
	return nil
}

// Close closes all three roles.
func (s *Store) Close() error {
	return errors.Join(
		s.Command.Close(),
		s.Publisher.client.Close(),
		s.Subscriber.client.Close(),
	)
}

// DefaultHealthTimeout bounds a Health probe.
const DefaultHealthTimeout = 3 * time.Second
