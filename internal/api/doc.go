// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

/*
Package api is the HTTP surface of the notification service.

Routes (chi):

	POST   /notify/queue                                  submit a notification
	GET    /queue/stats                                   worker state and queue depths
	GET    /redis/health                                  backing store probe
	GET    /ws                                            WebSocket upgrade
	GET    /notifications/{id}[?userId=]                  one record
	DELETE /notifications/{id}?userId=                    owner-checked delete
	GET    /users/{userId}/notifications?limit&offset     newest first
	GET    /users/{userId}/notifications/unread-count
	POST   /users/{userId}/notifications/{id}/read
	POST   /users/{userId}/notifications/read-all
	GET    /users/{userId}/notification-settings
	PUT    /users/{userId}/notification-settings
	GET    /metrics                                       Prometheus
	GET    /health/live

Every request gets an X-Request-ID and is counted by route pattern. CORS is
global; API routes are rate limited per IP.

Errors use one body shape:

	{"success": false, "error": {"code": "VALIDATION_ERROR", "message": "type is required"}, "timestamp": "..."}

Codes map from sentinel errors: validation failures are 400, an owner
mismatch or missing record is 404, and store.ErrUnavailable is 503.

Collaborators are injected through Deps; nothing is read from package state.
*/
package api
