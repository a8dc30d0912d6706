// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

// Package testinfra provides test infrastructure for integration testing with containers.
//
// Unit tests run against miniredis. Integration tests, built with the
// "integration" tag, start a real Redis through testcontainers-go so the
// blocking pop, keyspace TTL and pattern subscription behaviour is checked
// against the server that runs in production:
//
//	func TestQueueAgainstRedis(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    rc, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, rc)
//	    // connect to rc.Addr
//	}
//
// Run with:
//
//	go test -tags integration ./...
package testinfra
