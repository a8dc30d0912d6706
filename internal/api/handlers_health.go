// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/hearth/internal/models"
)

// HealthLive handles liveness probe requests.
// It reports only that the process is serving HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alive":     true,
		"uptime":    time.Since(h.startTime).Seconds(),
		"timestamp": time.Now().UTC(),
	})
}

// StoreHealth handles GET /redis/health.
// A failed probe answers 503 with healthy=false and the error text.
func (h *Handler) StoreHealth(w http.ResponseWriter, r *http.Request) {
	report := h.deps.Store.Health(r.Context())

	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, &models.StoreHealth{
		Healthy: report.Healthy,
		Stats:   report.Stats,
		Error:   report.Error,
	})
}
