// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package ephemeral

import (
	"context"
	"fmt"

	"github.com/tomtom215/hearth/internal/models"
)

// GetSettings returns userID's saved settings, or the defaults when none were saved.
func (s *Store) GetSettings(ctx context.Context, userID string) (models.NotificationSettings, error) {
	settings := models.DefaultSettings(userID)
	if _, err := s.Get(ctx, SettingsKey(userID), &settings); err != nil {
		return models.DefaultSettings(userID), err
	}
	settings.UserID = userID
	return settings, nil
}

// SaveSettings stores settings without expiry.
func (s *Store) SaveSettings(ctx context.Context, settings *models.NotificationSettings) error {
	if settings.UserID == "" {
		return fmt.Errorf("settings: user id is required")
	}
	settings.UpdatedAt = s.now().UTC()
	return s.Put(ctx, SettingsKey(settings.UserID), settings, 0)
}
