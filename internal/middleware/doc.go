// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

/*
Package middleware provides chi-compatible HTTP middleware.

  - RequestID: X-Request-ID propagation into the response and the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge, labeled by route pattern

Both have the func(http.Handler) http.Handler shape and are installed with
r.Use in the api package.
*/
package middleware
