// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"empty redis addr", func(c *Config) { c.Redis.Addr = "" }, "REDIS_ADDR is required"},
		{"redis addr without port", func(c *Config) { c.Redis.Addr = "localhost" }, "host:port"},
		{"redis db out of range", func(c *Config) { c.Redis.DB = 16 }, "REDIS_DB"},
		{"empty queue name", func(c *Config) { c.Queue.Name = "" }, "QUEUE_NAME"},
		{"fast monitor", func(c *Config) { c.Queue.MonitorInterval = 100 * time.Millisecond }, "QUEUE_MONITOR_INTERVAL"},
		{"queue name with colon", func(c *Config) { c.Queue.Name = "a:b" }, "QUEUE_NAME"},
		{"bad default priority", func(c *Config) { c.Queue.DefaultPriority = "medium" }, "QUEUE_DEFAULT_PRIORITY"},
		{"bad worker priority", func(c *Config) { c.Dispatcher.WorkerPriority = "urgent" }, "WORKER_PRIORITY"},
		{"high worker priority", func(c *Config) { c.Dispatcher.WorkerPriority = "high" }, ""},
		{"tiny poll interval", func(c *Config) { c.Dispatcher.PollInterval = time.Millisecond }, "WORKER_POLL_INTERVAL"},
		{"zero attempts", func(c *Config) { c.Dispatcher.MaxAttempts = 0 }, "NOTIFICATION_MAX_ATTEMPTS"},
		{"negative ttl", func(c *Config) { c.Dispatcher.RecordTTL = -time.Second }, "NOTIFICATION_TTL"},
		{"zero ttl allowed", func(c *Config) { c.Dispatcher.RecordTTL = 0 }, ""},
		{"zero dedupe ttl", func(c *Config) { c.Dispatcher.DedupeTTL = 0 }, "NOTIFICATION_DEDUPE_TTL"},
		{"rate limit zero", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
		{"rate limit disabled skips bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"rate window too long", func(c *Config) { c.Security.RateLimitWindow = 2 * time.Hour }, "RATE_LIMIT_WINDOW"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"empty log level", func(c *Config) { c.Logging.Level = "" }, "LOG_LEVEL"},
		{"upper case log level", func(c *Config) { c.Logging.Level = "WARN" }, ""},
		{"disabled log level", func(c *Config) { c.Logging.Level = "disabled" }, ""},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 3002}
	if got := s.Addr(); got != "127.0.0.1:3002" {
		t.Errorf("Addr() = %q", got)
	}
}
