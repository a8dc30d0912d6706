// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package models

import "time"

// NotificationSettings are per-user delivery preferences. They never expire.
type NotificationSettings struct {
	UserID       string             `json:"user_id"`
	AppEnabled   bool               `json:"app_enabled"`
	EmailEnabled bool               `json:"email_enabled"`
	MutedTypes   []NotificationType `json:"muted_types,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// DefaultSettings returns the settings used for a user who never saved any.
func DefaultSettings(userID string) NotificationSettings {
	return NotificationSettings{
		UserID:       userID,
		AppEnabled:   true,
		EmailEnabled: true,
	}
}

// Allows reports whether a notification of type t may go out on channel c.
func (s *NotificationSettings) Allows(c Channel, t NotificationType) bool {
	for _, muted := range s.MutedTypes {
		if muted == t {
			return false
		}
	}
	switch c {
	case ChannelApp:
		return s.AppEnabled
	case ChannelEmail:
		return s.EmailEnabled
	}
	return false
}
