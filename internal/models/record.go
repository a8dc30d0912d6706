// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package models

import "time"

// DefaultTitle is used when a job carries no task title.
const DefaultTitle = "Notification"

// DefaultRecordTTL is how long a notification record lives in the ephemeral store.
const DefaultRecordTTL = 7 * 24 * time.Hour

// NotificationRecord is the persisted projection of an executed job.
type NotificationRecord struct {
	NotificationID string                 `json:"notification_id"`
	UserID         string                 `json:"user_id"`
	Type           NotificationType       `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	ExpiresAt      *time.Time             `json:"expires_at,omitempty"`
	Read           bool                   `json:"read"`
	ReadAt         *time.Time             `json:"read_at,omitempty"`
}

// NewRecord projects job into a record and computes its store TTL.
//
// Without scheduledFor the TTL is defaultTTL. With it, the record expires at
// scheduledFor+defaultTTL and the TTL is the time left until then, floored at zero.
// A zero TTL means the record is already expired and should not be stored.
func NewRecord(job *NotificationJob, now time.Time, defaultTTL time.Duration) (NotificationRecord, time.Duration) {
	title := job.Data.TaskTitle
	if title == "" {
		title = DefaultTitle
	}

	rec := NotificationRecord{
		NotificationID: job.ID,
		UserID:         job.Data.UserID,
		Type:           job.Type,
		Title:          title,
		Message:        job.Data.Message,
		Metadata:       job.Data.Metadata,
		CreatedAt:      job.CreatedAt,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}

	if job.ScheduledFor == nil {
		return rec, defaultTTL
	}

	expires := job.ScheduledFor.Add(defaultTTL)
	rec.ExpiresAt = &expires

	ttl := expires.Sub(now).Truncate(time.Second)
	if ttl < 0 {
		ttl = 0
	}
	return rec, ttl
}

// RealtimeNotification is the app-channel payload pushed to WebSocket clients
// as new_notification or family_notification.
type RealtimeNotification struct {
	ID        string                 `json:"id"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	UserID    string                 `json:"userId"`
	FamilyID  string                 `json:"familyId,omitempty"`
	TaskID    string                 `json:"taskId,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Read      bool                   `json:"read"`
}

// NewRealtimeNotification builds the app-channel payload for job.
func NewRealtimeNotification(job *NotificationJob, now time.Time) RealtimeNotification {
	title := job.Data.TaskTitle
	if title == "" {
		title = DefaultTitle
	}
	return RealtimeNotification{
		ID:        job.ID,
		Type:      job.Type,
		Title:     title,
		Message:   job.Data.Message,
		UserID:    job.Data.UserID,
		FamilyID:  job.Data.FamilyID,
		TaskID:    job.Data.TaskID,
		Metadata:  job.Data.Metadata,
		Timestamp: now,
		Read:      false,
	}
}
