// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator whose error messages use JSON
// field names, so a submission missing its type is rejected with
// "type is required". The custom userid tag accepts identifiers that can be
// embedded in store keys and pub/sub channel names (no ':', '*' or
// whitespace).
//
// # Usage
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    apiErr := err.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
//
// Path and query values are checked with ValidateVar:
//
//	if err := validation.ValidateVar("userId", id, "required,userid"); err != nil { ... }
package validation
