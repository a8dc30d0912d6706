// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/models"
	"github.com/tomtom215/hearth/internal/store"
	"github.com/tomtom215/hearth/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.ErrorResponse{
		Success: false,
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	})
}

// respondValidationError sends a 400 VALIDATION_ERROR built from a validation failure.
func respondValidationError(w http.ResponseWriter, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondJSON(w, http.StatusBadRequest, &models.ErrorResponse{
		Success: false,
		Error: &models.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
		Timestamp: time.Now().UTC(),
	})
}

// respondStoreError maps a store failure onto 503, anything else onto 500.
func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrUnavailable) {
		respondError(w, http.StatusServiceUnavailable, CodeServiceUnavailable, "Backing store unavailable", err)
		return
	}
	respondError(w, http.StatusInternalServerError, CodeInternal, "Internal server error", err)
}

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, CodeValidation, "Request body too large", nil)
		return false
	}
	if len(body) == 0 {
		respondError(w, http.StatusBadRequest, CodeValidation, "Request body is required", nil)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid JSON body", nil)
		return false
	}
	return true
}

// userIDParam returns the validated {userId} path parameter.
func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	return validID(w, "userId", chi.URLParam(r, "userId"))
}

// notificationIDParam returns the validated {id} path parameter.
func notificationIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	return validID(w, "id", chi.URLParam(r, "id"))
}

func validID(w http.ResponseWriter, field, value string) (string, bool) {
	if verr := validation.ValidateVar(field, value, "required,userid"); verr != nil {
		respondValidationError(w, verr)
		return "", false
	}
	return value, true
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}
