// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

// Package cache provides in-process data structures for deduplication.
//
// SeenSet is a bounded LRU of ids with lazy TTL expiry. The dispatcher puts
// it in front of the store-backed claim (SET NX EX) so repeated triggers for
// the same job are rejected without a network round trip:
//
//	seen := cache.NewSeenSet(10000, 24*time.Hour)
//	if !seen.Claim(job.ID) {
//	    return ErrDuplicate
//	}
//
// The set only covers one process; the store claim is authoritative.
package cache
