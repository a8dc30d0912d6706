// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package dispatcher

import (
	"context"
	"time"

	"github.com/tomtom215/hearth/internal/cache"
	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/store"
)

// SeenKey is the store key marking a job id as executed.
func SeenKey(id string) string {
	return "notification:seen:" + id
}

// Guard makes Execute run at most once per job id across triggers and
// processes. The in-process set answers repeats without a round trip; the
// store marker settles races between processes.
type Guard struct {
	seen *cache.SeenSet
	cmd  *store.Command
	ttl  time.Duration
	now  func() time.Time
}

// NewGuard creates a guard remembering ids for ttl, at most size in process.
func NewGuard(cmd *store.Command, size int, ttl time.Duration) *Guard {
	return &Guard{
		seen: cache.NewSeenSet(size, ttl),
		cmd:  cmd,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Claim reports whether the caller is the first to execute id. A job
// scheduled for dueAt stays claimed until the guard ttl has passed after
// dueAt, so the worker drawing it when due sees the earlier execution.
func (g *Guard) Claim(ctx context.Context, id string, dueAt *time.Time) (bool, error) {
	ttl := g.claimTTL(dueAt)
	if !g.seen.ClaimFor(id, ttl) {
		return false, nil
	}

	ok, err := g.cmd.SetNX(ctx, SeenKey(id), 1, ttl).Result()
	if err != nil {
		g.seen.Release(id)
		return false, store.Unavailable("claim "+id, err)
	}
	// When another process holds the marker the local claim stays, so
	// later repeats here skip the store.
	return ok, nil
}

// claimTTL is the guard ttl plus the time left until dueAt.
func (g *Guard) claimTTL(dueAt *time.Time) time.Duration {
	if dueAt == nil {
		return g.ttl
	}
	if wait := dueAt.Sub(g.now()); wait > 0 {
		return g.ttl + wait
	}
	return g.ttl
}

// Release forgets id so a later delivery can execute it again.
func (g *Guard) Release(ctx context.Context, id string) error {
	g.seen.Release(id)
	return store.Unavailable("release "+id, g.cmd.Del(ctx, SeenKey(id)).Err())
}

// sweepInterval is how often Serve drops expired ids from the in-process set.
const sweepInterval = time.Minute

// Serve implements suture.Service, sweeping expired ids until ctx ends.
func (g *Guard) Serve(ctx context.Context) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := g.seen.CleanupExpired(); n > 0 {
				logging.Debug().Int("expired", n).Int("remaining", g.seen.Len()).Msg("Swept idempotency set")
			}
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (g *Guard) String() string {
	return "idempotency-guard"
}

// Stats exposes the in-process set counters.
func (g *Guard) Stats() cache.SeenStats {
	return g.seen.Stats()
}
