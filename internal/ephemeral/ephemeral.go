// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package ephemeral

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/hearth/internal/store"
)

// Store is a key/value layer with store-enforced expiry. Values are JSON.
type Store struct {
	cmd *store.Command
	now func() time.Time
}

// New creates an ephemeral store on the command role.
func New(cmd *store.Command) *Store {
	return &Store{cmd: cmd, now: time.Now}
}

// Put serializes value under key. A ttl of zero stores without expiry.
func (s *Store) Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("put %s: negative ttl %v", key, ttl)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Unavailable("set "+key, s.cmd.Set(ctx, key, payload, ttl).Err())
}

// Get decodes the value under key into dst. It reports false when the key is missing or expired.
func (s *Store) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := s.cmd.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, store.Unavailable("get "+key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Delete removes key unconditionally.
func (s *Store) Delete(ctx context.Context, key string) error {
	return store.Unavailable("del "+key, s.cmd.Del(ctx, key).Err())
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.cmd.Exists(ctx, key).Result()
	if err != nil {
		return false, store.Unavailable("exists "+key, err)
	}
	return n > 0, nil
}

// TTL returns the remaining lifetime of key. Missing keys return -2ns and keys
// without expiry -1ns, as reported by the store.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.cmd.PTTL(ctx, key).Result()
	if err != nil {
		return 0, store.Unavailable("pttl "+key, err)
	}
	return d, nil
}
