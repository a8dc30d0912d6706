// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

/*
Package supervisor provides process supervision for the notification service
using suture v4.

Every long-running component runs under a three-layer tree:

	RootSupervisor ("hearth")
	├── DataSupervisor ("data-layer")
	│   ├── notification-worker   (if DISPATCHER_WORKER_ENABLED)
	│   ├── idempotency-guard     (expires in-process claims)
	│   └── queue-monitor         (refreshes depth and health gauges)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── broadcast-router      (Redis pub/sub subscriber)
	│   └── websocket-hub
	└── APISupervisor ("api-layer")
	    └── http-server

Layers restart independently. A dropped pub/sub connection restarts the
router; the worker keeps draining the durable queue while it reconnects.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddPipeline(supervisor.Pipeline{
	    Worker: worker,
	    Guard:  guard,
	    Router: router,
	    Hub:    services.NewWebSocketHubService(hub),
	    HTTP:   services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout),
	})
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("supervisor stopped")
	}

Supervisor events (start, failure, backoff, restart) are logged through
sutureslog, bridged to zerolog by logging.NewSlogLogger.

Use UnstoppedServiceReport after shutdown to find services that ignored
cancellation.
*/
package supervisor
