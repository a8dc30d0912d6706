// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

// Package broadcast is the pub/sub fast path of the pipeline.
//
// Router publishes JSON on the store's publisher role and routes messages
// from the subscriber role to handlers registered by exact channel or glob
// pattern. It runs as a supervised service; subscriptions registered before
// or after Serve starts are both honoured.
//
// Channels:
//
//	notification:new                 every submitted job (dispatcher)
//	user:{userId}:notifications      per-user realtime payloads (app channel)
//	family:{familyId}:notifications  per-family realtime payloads (app channel)
//
// Delivery has no acknowledgement or buffering: a message published while no
// subscriber listens is lost.
package broadcast
