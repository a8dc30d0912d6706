// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

/*
Package metrics provides Prometheus metrics collection and export for observability.

Collectors are registered on the default registry through promauto and exposed
at /metrics in Prometheus text format:

	curl http://localhost:3002/metrics

# Available Metrics

Dispatcher:
  - hearth_notifications_submitted_total{priority,result}
  - hearth_notifications_executed_total{trigger,result}
    result=duplicate counts executions suppressed by the idempotency guard
  - hearth_notification_execute_duration_seconds{trigger}
  - hearth_channel_dispatches_total{channel,result}
  - hearth_records_persisted_total{result}

Queue:
  - hearth_queue_operations_total{operation,priority,result}
  - hearth_queue_depth{queue,priority}
  - hearth_dead_letters_total{queue}
  - hearth_worker_ticks_total{outcome}

Pub/Sub:
  - hearth_pubsub_published_total{kind,result}
  - hearth_pubsub_received_total{route,result}

WebSocket:
  - hearth_websocket_connections
  - hearth_websocket_room_joins_total
  - hearth_websocket_messages_sent_total{type}
  - hearth_websocket_emits_dropped_total{reason}

HTTP:
  - hearth_api_requests_total{method,endpoint,status_code}
  - hearth_api_request_duration_seconds{method,endpoint}
  - hearth_api_active_requests

Circuit breaker and store:
  - hearth_circuit_breaker_state{name}
  - hearth_circuit_breaker_transitions_total{name,from,to}
  - hearth_store_healthy

# Usage

	metrics.RecordExecution("worker", "ok", time.Since(start))
	metrics.RecordQueueOperation("enqueue", "low", err)

Label values must stay low-cardinality: never pass user or job ids.
*/
package metrics
