// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

/*
Package main is the entry point for the Hearth notification server.

Hearth accepts notification submissions over HTTP, stores each job twice (a
Redis list for durability and a pub/sub message for low latency), executes it
exactly once per job id, and pushes the result to household members over
WebSocket.

# Process Layout

	RootSupervisor ("hearth")
	├── DataSupervisor ("data-layer")
	│   ├── notification-worker   1s poll of queue:{name}:{priority}
	│   ├── idempotency-guard
	│   └── queue-monitor
	├── MessagingSupervisor ("messaging-layer")
	│   ├── broadcast-router      new-notification, user-notification:*, family-notification
	│   └── websocket-hub
	└── APISupervisor ("api-layer")
	    └── http-server

Initialization order:

 1. Configuration: koanf v2 (defaults, optional config file, environment)
 2. Logging: zerolog, bridged to slog for the supervisor
 3. Store: three Redis clients (command, publisher, subscriber), each pinged
 4. Queue, broadcast router, ephemeral record store
 5. Dispatcher with idempotency guard, subscribed to new-notification
 6. WebSocket hub and gateway, subscribed to the user and family channels
 7. Worker (WORKER_ENABLED) and HTTP server
 8. Supervisor tree; blocks until SIGINT or SIGTERM

# Configuration

Common environment variables:

	REDIS_ADDR              localhost:6379
	HTTP_PORT               3002
	QUEUE_NAME              notifications
	QUEUE_DEFAULT_PRIORITY  low
	WORKER_ENABLED          true
	WORKER_POLL_INTERVAL    1s
	NOTIFICATION_TTL        168h
	WS_ALLOWED_ORIGINS      *
	LOG_LEVEL               info

A config file is read from CONFIG_PATH when set.

# Signals

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
HTTP_SHUTDOWN_TIMEOUT, the worker finishes its current tick, the hub closes
every socket, and the Redis clients are closed last.
*/
package main
