// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

// Package ephemeral stores notification records and user settings with
// store-enforced expiry.
//
// Key layout:
//
//	notification:{id}                      JSON record, TTL per record
//	user:{userId}:notifications            ZSET of ids scored by created_at (ms)
//	user:{userId}:notifications:unread     SET of unread ids
//	user:{userId}:notification_settings    JSON settings, no TTL
//
// Records expire on their own. The per-user index can outlive a record, so
// listing and unread counting drop ids whose record is gone. Deletes and
// read-state changes are owner-checked: a mismatch is reported as false.
package ephemeral
