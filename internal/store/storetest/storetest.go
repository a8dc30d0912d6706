// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

// Package storetest starts an in-memory Redis for unit tests.
package storetest

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/hearth/internal/store"
)

// New starts a miniredis server and returns a store connected to it.
// Both are closed when the test ends.
func New(t testing.TB) (*store.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	s := store.New(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("close store: %v", err)
		}
	})
	return s, mr
}
