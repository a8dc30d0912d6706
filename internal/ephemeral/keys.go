// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package ephemeral

// NotificationKey is the record key for a notification id.
func NotificationKey(id string) string {
	return "notification:" + id
}

// UserIndexKey is the sorted set of a user's notification ids, scored by creation time.
func UserIndexKey(userID string) string {
	return "user:" + userID + ":notifications"
}

// UserUnreadKey is the set of a user's unread notification ids.
func UserUnreadKey(userID string) string {
	return "user:" + userID + ":notifications:unread"
}

// SettingsKey is the key for a user's notification settings.
func SettingsKey(userID string) string {
	return "user:" + userID + ":notification_settings"
}
