// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the notification pipeline:
// - Submissions and executions by trigger
// - Durable queue operations and dead letters
// - Pub/sub traffic
// - WebSocket fanout
// - API endpoint latency and throughput

var (
	// Dispatcher Metrics
	NotificationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_notifications_submitted_total",
			Help: "Total number of notification submissions",
		},
		[]string{"priority", "result"}, // result: "ok", "enqueue_failed"
	)

	NotificationsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_notifications_executed_total",
			Help: "Total number of Execute outcomes",
		},
		[]string{"trigger", "result"}, // trigger: "worker", "pubsub"; result: "ok", "duplicate", "failed"
	)

	NotificationExecuteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hearth_notification_execute_duration_seconds",
			Help:    "Duration of Execute calls in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"trigger"},
	)

	ChannelDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_channel_dispatches_total",
			Help: "Total number of per-channel dispatch attempts",
		},
		[]string{"channel", "result"}, // result: "ok", "error", "skipped"
	)

	RecordsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_records_persisted_total",
			Help: "Total number of notification record writes",
		},
		[]string{"result"}, // "ok", "error", "expired"
	)

	// Queue Metrics
	QueueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_queue_operations_total",
			Help: "Total number of durable queue operations",
		},
		[]string{"operation", "priority", "result"}, // operation: "enqueue", "dequeue", "requeue"
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hearth_queue_depth",
			Help: "Last observed length of each queue bucket",
		},
		[]string{"queue", "priority"},
	)

	DeadLetters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_dead_letters_total",
			Help: "Total number of envelopes moved to the dead letter list",
		},
		[]string{"queue"},
	)

	WorkerTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_worker_ticks_total",
			Help: "Total number of worker ticks by outcome",
		},
		[]string{"outcome"}, // "empty", "executed", "duplicate", "rescheduled", "retried", "dead", "error", "malformed"
	)

	// Pub/Sub Metrics
	PubSubPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_pubsub_published_total",
			Help: "Total number of pub/sub publishes",
		},
		[]string{"kind", "result"}, // kind: "new", "user", "family"
	)

	PubSubReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_pubsub_received_total",
			Help: "Total number of pub/sub messages routed to handlers",
		},
		[]string{"route", "result"}, // result: "ok", "error", "panic", "unrouted"
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hearth_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSRoomJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hearth_websocket_room_joins_total",
			Help: "Total number of join_user_room requests accepted",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_websocket_messages_sent_total",
			Help: "Total number of WebSocket messages queued to clients",
		},
		[]string{"type"},
	)

	WSEmitsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_websocket_emits_dropped_total",
			Help: "Total number of emits with no receiving client",
		},
		[]string{"reason"}, // "empty_room", "slow_client", "hub_full", "no_clients"
	)

	WSInboundDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hearth_websocket_inbound_dropped_total",
			Help: "Total number of client frames dropped by the per-connection rate limit",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hearth_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hearth_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hearth_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Store Metrics
	StoreHealthy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hearth_store_healthy",
			Help: "1 when the last store health probe succeeded",
		},
	)
)

// okOrError maps an error to a result label.
func okOrError(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordSubmission records a Submit outcome.
func RecordSubmission(priority string, err error) {
	result := "ok"
	if err != nil {
		result = "enqueue_failed"
	}
	NotificationsSubmitted.WithLabelValues(priority, result).Inc()
}

// RecordExecution records an Execute outcome.
func RecordExecution(trigger, result string, duration time.Duration) {
	NotificationsExecuted.WithLabelValues(trigger, result).Inc()
	NotificationExecuteDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}

// RecordChannelDispatch records one channel dispatcher run.
func RecordChannelDispatch(channel, result string) {
	ChannelDispatches.WithLabelValues(channel, result).Inc()
}

// RecordPersist records a notification record write.
func RecordPersist(result string) {
	RecordsPersisted.WithLabelValues(result).Inc()
}

// RecordQueueOperation records a queue command outcome.
func RecordQueueOperation(operation, priority string, err error) {
	QueueOperations.WithLabelValues(operation, priority, okOrError(err)).Inc()
}

// SetQueueDepth stores the last observed length of a bucket.
func SetQueueDepth(queue, priority string, depth int64) {
	QueueDepth.WithLabelValues(queue, priority).Set(float64(depth))
}

// RecordDeadLetter records an envelope moved to the dead letter list.
func RecordDeadLetter(queue string) {
	DeadLetters.WithLabelValues(queue).Inc()
}

// RecordWorkerTick records what a worker tick did.
func RecordWorkerTick(outcome string) {
	WorkerTicks.WithLabelValues(outcome).Inc()
}

// RecordPublish records a pub/sub publish.
func RecordPublish(kind string, err error) {
	PubSubPublished.WithLabelValues(kind, okOrError(err)).Inc()
}

// RecordReceive records a routed pub/sub message.
func RecordReceive(route, result string) {
	PubSubReceived.WithLabelValues(route, result).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// SetStoreHealthy records the result of a store health probe.
func SetStoreHealthy(healthy bool) {
	if healthy {
		StoreHealthy.Set(1)
	} else {
		StoreHealthy.Set(0)
	}
}
