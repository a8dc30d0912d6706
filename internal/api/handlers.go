// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package api

import (
	"context"
	"time"

	"github.com/tomtom215/hearth/internal/config"
	"github.com/tomtom215/hearth/internal/models"
	"github.com/tomtom215/hearth/internal/store"
	ws "github.com/tomtom215/hearth/internal/websocket"
)

// Submitter accepts notification submissions.
type Submitter interface {
	Submit(ctx context.Context, req *models.SubmitRequest) (*models.NotificationJob, error)
}

// WorkerStatus reports the state of the polling worker.
type WorkerStatus interface {
	IsProcessing() bool
	Priority() models.Priority
}

// QueueInspector reads durable queue depths.
type QueueInspector interface {
	Length(ctx context.Context, name string, priority models.Priority) (int64, error)
	DeadLength(ctx context.Context, name string) (int64, error)
}

// HealthChecker probes the backing store.
type HealthChecker interface {
	Health(ctx context.Context) store.HealthReport
}

// NotificationStore serves persisted notifications, read state and settings.
type NotificationStore interface {
	GetNotification(ctx context.Context, id string) (*models.NotificationRecord, error)
	DeleteNotification(ctx context.Context, id, ownerUserID string) (bool, error)
	GetUserNotifications(ctx context.Context, userID string, limit, offset int) ([]models.NotificationRecord, error)
	MarkAsRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllAsRead(ctx context.Context, userID string) (int, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	GetSettings(ctx context.Context, userID string) (models.NotificationSettings, error)
	SaveSettings(ctx context.Context, settings *models.NotificationSettings) error
}

// Deps are the collaborators the HTTP surface is built from.
// Worker may be nil when the polling worker is disabled.
type Deps struct {
	Config     *config.Config
	Dispatcher Submitter
	Worker     WorkerStatus
	Queue      QueueInspector
	Store      HealthChecker
	Records    NotificationStore
	Hub        *ws.Hub
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_queue.go: submission and queue stats
//   - handlers_notifications.go: records, read state and settings
//   - handlers_health.go: liveness and store health
//   - handlers_realtime.go: WebSocket upgrade
type Handler struct {
	deps      Deps
	queueName string
	startTime time.Time
}

// NewHandler creates a handler over deps.
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		deps:      deps,
		queueName: "notifications",
		startTime: time.Now(),
	}
	if deps.Config != nil && deps.Config.Queue.Name != "" {
		h.queueName = deps.Config.Queue.Name
	}
	return h
}

// workerPriority is the bucket the worker drains, or the configured
// default when no worker runs in this process.
func (h *Handler) workerPriority() models.Priority {
	if h.deps.Worker != nil {
		return h.deps.Worker.Priority()
	}
	if h.deps.Config != nil {
		if p, err := models.ParsePriority(h.deps.Config.ResolvedWorkerPriority()); err == nil {
			return p
		}
	}
	return models.DefaultPriority
}
