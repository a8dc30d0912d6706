// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

/*
Package models defines the data structures shared across the notification pipeline.

Key Components:

  - NotificationJob: the producer payload carried by both delivery paths
  - QueueEnvelope: durable queue wrapper with bounded retry bookkeeping
  - NotificationRecord: the TTL-bound projection persisted per executed job
  - NotificationSettings: per-user channel and type preferences
  - API request/response bodies for the HTTP surface

JSON field names follow the wire format producers already speak: jobs and
envelopes use camelCase, persisted records use snake_case.

Priority is a closed enum (high, low). Every job leaving Submit carries one
explicitly; DefaultPriority fills the gap when a producer omits it.
*/
package models
