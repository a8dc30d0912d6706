// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// DefaultRedisImage is the Redis image used by integration tests.
const DefaultRedisImage = "redis:7.4-alpine"

// RedisContainer represents a running Redis container for testing.
type RedisContainer struct {
	*tcredis.RedisContainer
	Addr string
	URL  string
}

// RedisOption configures the Redis container.
type RedisOption func(*redisConfig)

type redisConfig struct {
	image        string
	startTimeout time.Duration
}

// WithRedisImage sets a custom Redis Docker image.
func WithRedisImage(image string) RedisOption {
	return func(c *redisConfig) {
		c.image = image
	}
}

// WithStartTimeout sets the timeout for waiting for the container to start.
func WithStartTimeout(timeout time.Duration) RedisOption {
	return func(c *redisConfig) {
		c.startTimeout = timeout
	}
}

// NewRedisContainer creates and starts a Redis container for testing.
//
//	rc, err := testinfra.NewRedisContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, rc)
//
//	cfg.Redis.Addr = rc.Addr
func NewRedisContainer(ctx context.Context, opts ...RedisOption) (*RedisContainer, error) {
	cfg := &redisConfig{
		image:        DefaultRedisImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	startCtx, cancel := context.WithTimeout(ctx, cfg.startTimeout)
	defer cancel()

	container, err := tcredis.Run(startCtx, cfg.image)
	if err != nil {
		return nil, fmt.Errorf("create redis container: %w", err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("redis connection string: %w", err)
	}

	parsed, err := redis.ParseURL(url)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("parse redis url %q: %w", url, err)
	}

	return &RedisContainer{
		RedisContainer: container,
		Addr:           parsed.Addr,
		URL:            url,
	}, nil
}

var _ testcontainers.Container = (*RedisContainer)(nil)
