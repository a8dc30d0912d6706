// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package models

import (
	"time"
)

// APIError represents error details in API responses.
//
// Standard error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - NOT_FOUND: Record missing or owned by another user
//   - SERVICE_UNAVAILABLE: Backing store unreachable
//   - INTERNAL_ERROR: Unexpected server error
//
// Example:
//
//	{
//	  "code": "VALIDATION_ERROR",
//	  "message": "type is required",
//	  "details": {"field": "type"}
//	}
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *APIError `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// SubmitRequest is the body of POST /notify/queue.
// Type, channels and data are required; id and createdAt are always server-assigned.
type SubmitRequest struct {
	Type         NotificationType  `json:"type" validate:"required"`
	Channels     []Channel         `json:"channels" validate:"required,min=1,dive,oneof=app email"`
	Data         *NotificationData `json:"data" validate:"required"`
	Priority     string            `json:"priority,omitempty" validate:"omitempty,oneof=high low"`
	ScheduledFor *time.Time        `json:"scheduledFor,omitempty"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	Success  bool     `json:"success"`
	ID       string   `json:"id"`
	Priority Priority `json:"priority"`
}

// QueueLengths is the queues block of GET /queue/stats.
type QueueLengths struct {
	Notifications int64 `json:"notifications"`
	Total         int64 `json:"total"`
}

// QueueStats is the body of GET /queue/stats.
// Queues reports the bucket the worker drains; ByPriority reports every bucket.
type QueueStats struct {
	IsProcessing   bool               `json:"isProcessing"`
	Queues         QueueLengths       `json:"queues"`
	WorkerPriority Priority           `json:"workerPriority"`
	ByPriority     map[Priority]int64 `json:"byPriority"`
	Dead           int64              `json:"dead"`
}

// StoreHealth is the body of GET /redis/health.
type StoreHealth struct {
	Healthy bool              `json:"healthy"`
	Stats   map[string]string `json:"stats"`
	Error   string            `json:"error,omitempty"`
}

// NotificationList is a page of a user's notifications, newest first.
type NotificationList struct {
	UserID        string               `json:"userId"`
	Notifications []NotificationRecord `json:"notifications"`
	Limit         int                  `json:"limit"`
	Offset        int                  `json:"offset"`
	Unread        int64                `json:"unread"`
}
