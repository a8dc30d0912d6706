// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package api

import (
	"net/http"

	"github.com/tomtom215/hearth/internal/models"
	"github.com/tomtom215/hearth/internal/validation"
)

// Paging for GET /users/{userId}/notifications.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// GetNotification handles GET /notifications/{id}.
// With ?userId= the record must belong to that user; a mismatch is a 404.
func (h *Handler) GetNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := notificationIDParam(w, r)
	if !ok {
		return
	}

	rec, err := h.deps.Records.GetNotification(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	owner := r.URL.Query().Get("userId")
	if rec == nil || (owner != "" && rec.UserID != owner) {
		respondError(w, http.StatusNotFound, CodeNotFound, "Notification not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// DeleteNotification handles DELETE /notifications/{id}?userId=.
// Only the owner can delete; a missing record and a foreign one are both 404.
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := notificationIDParam(w, r)
	if !ok {
		return
	}
	owner, ok := validID(w, "userId", r.URL.Query().Get("userId"))
	if !ok {
		return
	}

	deleted, err := h.deps.Records.DeleteNotification(r.Context(), id, owner)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, CodeNotFound, "Notification not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": id})
}

// pageRequest is validated from the limit and offset query parameters.
type pageRequest struct {
	Limit  int `json:"limit" validate:"min=1,max=100"`
	Offset int `json:"offset" validate:"min=0"`
}

// ListUserNotifications handles GET /users/{userId}/notifications?limit&offset.
// Records are newest first; expired ones are skipped.
func (h *Handler) ListUserNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	page := pageRequest{
		Limit:  getIntParam(r, "limit", DefaultPageLimit),
		Offset: getIntParam(r, "offset", 0),
	}
	if verr := validation.ValidateStruct(&page); verr != nil {
		respondValidationError(w, verr)
		return
	}

	records, err := h.deps.Records.GetUserNotifications(r.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	unread, err := h.deps.Records.GetUnreadCount(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.NotificationList{
		UserID:        userID,
		Notifications: records,
		Limit:         page.Limit,
		Offset:        page.Offset,
		Unread:        unread,
	})
}

// UnreadCount handles GET /users/{userId}/notifications/unread-count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	count, err := h.deps.Records.GetUnreadCount(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"userId": userID, "count": count})
}

// MarkRead handles POST /users/{userId}/notifications/{id}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	id, ok := notificationIDParam(w, r)
	if !ok {
		return
	}

	marked, err := h.deps.Records.MarkAsRead(r.Context(), id, userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if !marked {
		respondError(w, http.StatusNotFound, CodeNotFound, "Notification not found", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": id})
}

// MarkAllRead handles POST /users/{userId}/notifications/read-all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	n, err := h.deps.Records.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "marked": n})
}

// GetSettings handles GET /users/{userId}/notification-settings.
// Users who never saved settings get the defaults.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	settings, err := h.deps.Records.GetSettings(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &settings)
}

// settingsUpdate is the body of PUT /users/{userId}/notification-settings.
// Omitted fields keep their current value.
type settingsUpdate struct {
	AppEnabled   *bool                     `json:"app_enabled"`
	EmailEnabled *bool                     `json:"email_enabled"`
	MutedTypes   []models.NotificationType `json:"muted_types" validate:"omitempty,max=32,dive,required"`
}

// PutSettings handles PUT /users/{userId}/notification-settings.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var update settingsUpdate
	if !decodeJSON(w, r, &update) {
		return
	}
	if verr := validation.ValidateStruct(&update); verr != nil {
		respondValidationError(w, verr)
		return
	}

	settings, err := h.deps.Records.GetSettings(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if update.AppEnabled != nil {
		settings.AppEnabled = *update.AppEnabled
	}
	if update.EmailEnabled != nil {
		settings.EmailEnabled = *update.EmailEnabled
	}
	if update.MutedTypes != nil {
		settings.MutedTypes = update.MutedTypes
	}
	settings.UserID = userID

	if err := h.deps.Records.SaveSettings(r.Context(), &settings); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &settings)
}
