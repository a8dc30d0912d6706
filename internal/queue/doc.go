// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

// Package queue implements the durable notification queue on store lists.
//
// Each (name, priority) pair is its own list, queue:{name}:{priority}.
// Enqueue pushes at the head with LPUSH and Dequeue pops the tail with BRPOP,
// so every bucket is FIFO. Buckets never merge: a consumer polling "low"
// will not see anything parked in "high".
//
// Enqueue runs behind a circuit breaker. After repeated store failures the
// breaker opens and Enqueue fails fast with store.ErrUnavailable.
//
// Envelopes that run out of attempts move to queue:{name}:dead.
package queue
