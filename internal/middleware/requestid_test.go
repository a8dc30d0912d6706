// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/hearth/internal/logging"
)

func serveRequestID(t *testing.T, incoming string) (header string, ctx context.Context) {
	t.Helper()
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if incoming != "" {
		req.Header.Set(RequestIDHeader, incoming)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Header().Get(RequestIDHeader), ctx
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	header, ctx := serveRequestID(t, "")

	if _, err := uuid.Parse(header); err != nil {
		t.Fatalf("X-Request-ID %q is not a UUID: %v", header, err)
	}
	if got := GetRequestID(ctx); got != header {
		t.Errorf("context id = %q, header = %q", got, header)
	}
	if got := logging.RequestIDFromContext(ctx); got != header {
		t.Errorf("logging request id = %q, want %q", got, header)
	}
	if logging.CorrelationIDFromContext(ctx) == "" {
		t.Error("correlation id not set")
	}
}

func TestRequestID_Upstream(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "kept", incoming: "proxy-abc-123", keep: true},
		{name: "too long", incoming: strings.Repeat("a", maxRequestIDLength+1)},
		{name: "control characters", incoming: "abc\x01def"},
		{name: "spaces", incoming: "abc def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, ctx := serveRequestID(t, tt.incoming)
			if tt.keep && header != tt.incoming {
				t.Errorf("header = %q, want upstream %q", header, tt.incoming)
			}
			if !tt.keep && header == tt.incoming {
				t.Errorf("unsafe upstream id %q was kept", tt.incoming)
			}
			if GetRequestID(ctx) != header {
				t.Error("context id does not match header")
			}
		})
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() = %q, want empty", got)
	}
}
