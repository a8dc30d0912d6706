// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/models"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateRedis(); err != nil {
		return err
	}

	if err := c.validateQueue(); err != nil {
		return err
	}

	if err := c.validateDispatcher(); err != nil {
		return err
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// validateRedis validates Redis connection configuration
func (c *Config) validateRedis() error {
	if strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if !strings.Contains(c.Redis.Addr, ":") {
		return fmt.Errorf("REDIS_ADDR must be host:port, got %q", c.Redis.Addr)
	}
	if c.Redis.DB < 0 || c.Redis.DB > 15 {
		return fmt.Errorf("REDIS_DB must be between 0 and 15")
	}
	if c.Redis.PoolSize < 1 {
		return fmt.Errorf("REDIS_POOL_SIZE must be at least 1")
	}
	return nil
}

// validateQueue validates queue naming and breaker configuration
func (c *Config) validateQueue() error {
	if c.Queue.Name == "" {
		return fmt.Errorf("QUEUE_NAME is required")
	}
	if strings.ContainsAny(c.Queue.Name, ": ") {
		return fmt.Errorf("QUEUE_NAME must not contain ':' or spaces")
	}
	if _, err := models.ParsePriority(c.Queue.DefaultPriority); err != nil {
		return fmt.Errorf("QUEUE_DEFAULT_PRIORITY must be one of: high, low")
	}
	if c.Queue.MonitorInterval < time.Second {
		return fmt.Errorf("QUEUE_MONITOR_INTERVAL must be at least 1s")
	}
	if c.Queue.BreakerFailureThreshold == 0 {
		return fmt.Errorf("QUEUE_BREAKER_FAILURE_THRESHOLD must be at least 1")
	}
	return nil
}

// validateDispatcher validates worker and execution settings
func (c *Config) validateDispatcher() error {
	d := c.Dispatcher
	if d.WorkerPriority != "" {
		if _, err := models.ParsePriority(d.WorkerPriority); err != nil {
			return fmt.Errorf("WORKER_PRIORITY must be empty or one of: high, low")
		}
	}
	if d.PollInterval < 10*time.Millisecond {
		return fmt.Errorf("WORKER_POLL_INTERVAL must be at least 10ms")
	}
	if d.DequeueTimeout < 0 {
		return fmt.Errorf("WORKER_DEQUEUE_TIMEOUT must not be negative")
	}
	if d.MaxAttempts < 1 {
		return fmt.Errorf("NOTIFICATION_MAX_ATTEMPTS must be at least 1")
	}
	if d.RecordTTL < 0 {
		return fmt.Errorf("NOTIFICATION_TTL must not be negative")
	}
	if d.DedupeTTL <= 0 {
		return fmt.Errorf("NOTIFICATION_DEDUPE_TTL must be positive")
	}
	if d.DedupeCacheSize < 1 {
		return fmt.Errorf("NOTIFICATION_DEDUPE_SIZE must be at least 1")
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic, disabled")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// HasWildcardOrigin reports whether the WebSocket gateway accepts any origin.
func (c *Config) HasWildcardOrigin() bool {
	for _, origin := range c.Realtime.AllowedOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
