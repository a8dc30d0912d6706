// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package models

import (
	"fmt"
	"time"
)

// NotificationType tags what happened. The set is open: unknown non-empty
// tags are carried through untouched.
type NotificationType string

const (
	TypeTaskCompleted NotificationType = "task_completed"
	TypeTaskAssigned  NotificationType = "task_assigned"
	TypeTaskReminder  NotificationType = "task_reminder"
	TypeSystemAlert   NotificationType = "system_alert"
)

// IsKnown reports whether t is one of the built-in notification types.
func (t NotificationType) IsKnown() bool {
	switch t {
	case TypeTaskCompleted, TypeTaskAssigned, TypeTaskReminder, TypeSystemAlert:
		return true
	}
	return false
}

// Channel selects a delivery dispatcher.
type Channel string

const (
	ChannelApp   Channel = "app"
	ChannelEmail Channel = "email"
)

// AllChannels lists every supported delivery channel.
var AllChannels = []Channel{ChannelApp, ChannelEmail}

// ParseChannel converts a wire value into a Channel.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelApp, ChannelEmail:
		return Channel(s), nil
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

// Priority selects the durable queue bucket. There is no merge across buckets:
// a worker polling one never sees jobs parked in the other.
type Priority string

const (
	PriorityHigh Priority = "high"
	PriorityLow  Priority = "low"
)

// DefaultPriority is applied to submissions without an explicit priority and is
// the bucket the worker drains unless configured otherwise.
const DefaultPriority = PriorityLow

// AllPriorities lists every queue bucket.
var AllPriorities = []Priority{PriorityHigh, PriorityLow}

// ParsePriority converts a wire value into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityHigh, PriorityLow:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q (want high or low)", s)
}

// NotificationData is the producer-supplied payload of a job.
type NotificationData struct {
	UserID     string                 `json:"userId" validate:"required,userid"`
	Recipients []string               `json:"recipients,omitempty" validate:"omitempty,dive,userid"`
	BossUserID string                 `json:"bossUserId,omitempty" validate:"omitempty,userid"`
	FamilyID   string                 `json:"familyId,omitempty" validate:"omitempty,userid"`
	TaskID     string                 `json:"taskId,omitempty"`
	TaskTitle  string                 `json:"taskTitle,omitempty"`
	Message    string                 `json:"message" validate:"required"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Targets returns the distinct user ids the job addresses, in order:
// userId, recipients, bossUserId. Empty ids are skipped.
func (d *NotificationData) Targets() []string {
	seen := make(map[string]struct{}, len(d.Recipients)+2)
	targets := make([]string, 0, len(d.Recipients)+2)

	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}

	add(d.UserID)
	for _, r := range d.Recipients {
		add(r)
	}
	add(d.BossUserID)
	return targets
}

// NotificationJob is the unit of work that flows through the queue and the
// pub/sub fast path.
type NotificationJob struct {
	ID           string           `json:"id"`
	Type         NotificationType `json:"type"`
	Channels     []Channel        `json:"channels"`
	Data         NotificationData `json:"data"`
	CreatedAt    time.Time        `json:"createdAt"`
	ScheduledFor *time.Time       `json:"scheduledFor,omitempty"`
	Priority     Priority         `json:"priority,omitempty"`
}

// IsDue reports whether the job may execute at now.
func (j *NotificationJob) IsDue(now time.Time) bool {
	return j.ScheduledFor == nil || !j.ScheduledFor.After(now)
}

// Validate checks the fields Execute relies on.
func (j *NotificationJob) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if j.Type == "" {
		return fmt.Errorf("job type is required")
	}
	if len(j.Channels) == 0 {
		return fmt.Errorf("job %s has no channels", j.ID)
	}
	for _, c := range j.Channels {
		if _, err := ParseChannel(string(c)); err != nil {
			return fmt.Errorf("job %s: %w", j.ID, err)
		}
	}
	if j.Data.UserID == "" {
		return fmt.Errorf("job %s: data.userId is required", j.ID)
	}
	if j.Data.Message == "" {
		return fmt.Errorf("job %s: data.message is required", j.ID)
	}
	return nil
}

// EnvelopeType is the only envelope kind the queue carries.
const EnvelopeType = "notification"

// DefaultMaxAttempts bounds worker deliveries before dead-lettering.
const DefaultMaxAttempts = 3

// QueueEnvelope wraps a job for transport through a durable queue list.
type QueueEnvelope struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Data        NotificationJob `json:"data"`
	CreatedAt   time.Time       `json:"createdAt"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	Priority    Priority        `json:"priority"`
	LastError   string          `json:"lastError,omitempty"`
}

// NewEnvelope wraps job for the queue. maxAttempts below 1 falls back to DefaultMaxAttempts.
func NewEnvelope(job NotificationJob, maxAttempts int) QueueEnvelope {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return QueueEnvelope{
		ID:          job.ID,
		Type:        EnvelopeType,
		Data:        job,
		CreatedAt:   job.CreatedAt,
		Attempts:    0,
		MaxAttempts: maxAttempts,
		Priority:    job.Priority,
	}
}

// Exhausted reports whether the envelope has used all its attempts.
func (e *QueueEnvelope) Exhausted() bool {
	return e.Attempts >= e.MaxAttempts
}
