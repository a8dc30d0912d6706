// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package broadcast

import "strings"

// Channel names and patterns carried on the store's pub/sub.
const (
	// NewNotificationChannel carries every submitted job for immediate execution.
	NewNotificationChannel = "notification:new"

	// UserPattern matches per-user realtime fanout channels.
	UserPattern = "user:*:notifications"

	// FamilyPattern matches per-family realtime fanout channels.
	FamilyPattern = "family:*:notifications"

	notificationsSuffix = ":notifications"
	userPrefix          = "user:"
	familyPrefix        = "family:"
)

// UserChannel returns the fanout channel for one user.
func UserChannel(userID string) string {
	return userPrefix + userID + notificationsSuffix
}

// FamilyChannel returns the fanout channel for one family.
func FamilyChannel(familyID string) string {
	return familyPrefix + familyID + notificationsSuffix
}

// UserIDFromChannel extracts the user id from a user fanout channel.
func UserIDFromChannel(channel string) (string, bool) {
	return idBetween(channel, userPrefix)
}

// FamilyIDFromChannel extracts the family id from a family fanout channel.
func FamilyIDFromChannel(channel string) (string, bool) {
	return idBetween(channel, familyPrefix)
}

func idBetween(channel, prefix string) (string, bool) {
	if !strings.HasPrefix(channel, prefix) || !strings.HasSuffix(channel, notificationsSuffix) {
		return "", false
	}
	id := channel[len(prefix) : len(channel)-len(notificationsSuffix)]
	if id == "" || strings.Contains(id, ":") {
		return "", false
	}
	return id, true
}
