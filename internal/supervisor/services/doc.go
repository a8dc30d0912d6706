// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

/*
Package services provides suture.Service wrappers for components whose
lifecycle is not already Serve(ctx) shaped.

  - HTTPServerService: ListenAndServe plus Shutdown with a drain timeout.
  - WebSocketHubService: names the hub's RunWithContext loop.
  - QueueMonitorService: ticker that probes the store and reads queue depths.

The broadcast router, notification worker and idempotency guard implement
suture.Service themselves and are added to the tree directly.

Each wrapper returns ctx.Err() on cancellation so the supervisor treats the
stop as clean, and any other error as a failure eligible for restart.
*/
package services
