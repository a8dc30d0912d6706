// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

// Package store owns the connections to the Redis-compatible backing store.
//
// A connection in subscriber mode cannot issue ordinary commands, so one
// logical store is modelled as three role-typed handles created by a single
// factory and kept for the life of the process:
//
//   - Command: lists, strings, sets and sorted sets (queue, ephemeral records)
//   - Publisher: PUBLISH only
//   - Subscriber: SUBSCRIBE and PSUBSCRIBE only
//
// Connection and command failures are wrapped with ErrUnavailable.
package store
