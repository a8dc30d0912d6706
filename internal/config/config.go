// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the notification service.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. .env file: Optional, loaded into the process environment
//  3. Config File: Optional YAML config file (config.yaml)
//  4. Environment Variables: Override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Redis      RedisConfig      `koanf:"redis"`
	Queue      QueueConfig      `koanf:"queue"`
	Dispatcher DispatcherConfig `koanf:"dispatcher"`
	Realtime   RealtimeConfig   `koanf:"realtime"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisConfig holds connection settings shared by the three store roles
// (command, publisher, subscriber).
type RedisConfig struct {
	Addr         string        `koanf:"addr"`
	Username     string        `koanf:"username"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	PoolSize     int           `koanf:"pool_size"`
}

// QueueConfig holds durable queue settings.
type QueueConfig struct {
	// Name is the logical queue; lists are queue:{name}:{priority}.
	Name string `koanf:"name"`

	// DefaultPriority is used when a submission does not carry one.
	// The worker polls the same bucket unless WorkerPriority overrides it.
	DefaultPriority string `koanf:"default_priority"`

	// MonitorInterval is how often depth and health gauges are refreshed.
	MonitorInterval time.Duration `koanf:"monitor_interval"`

	// Circuit breaker around enqueue.
	BreakerMaxRequests      uint32        `koanf:"breaker_max_requests"`
	BreakerInterval         time.Duration `koanf:"breaker_interval"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
}

// DispatcherConfig holds worker and execution settings.
type DispatcherConfig struct {
	// WorkerEnabled toggles the polling worker; the pub/sub path always runs.
	WorkerEnabled bool `koanf:"worker_enabled"`

	// WorkerPriority is the bucket the worker drains. Empty means Queue.DefaultPriority.
	WorkerPriority string `koanf:"worker_priority"`

	PollInterval   time.Duration `koanf:"poll_interval"`
	DequeueTimeout time.Duration `koanf:"dequeue_timeout"`
	MaxAttempts    int           `koanf:"max_attempts"`

	// RecordTTL is the lifetime of a persisted notification record. Zero
	// disables persistence; jobs are still dispatched.
	RecordTTL time.Duration `koanf:"record_ttl"`

	// DedupeTTL bounds how long a job id is remembered by the idempotency guard.
	DedupeTTL time.Duration `koanf:"dedupe_ttl"`

	// DedupeCacheSize caps the in-process seen-set.
	DedupeCacheSize int `koanf:"dedupe_cache_size"`

	// ExecuteTimeout bounds a single Execute call.
	ExecuteTimeout time.Duration `koanf:"execute_timeout"`
}

// RealtimeConfig holds WebSocket gateway settings.
type RealtimeConfig struct {
	// AllowedOrigins for the WebSocket upgrade. "*" allows any origin.
	AllowedOrigins []string `koanf:"allowed_origins"`

	SendBuffer int `koanf:"send_buffer"`
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// ResolvedWorkerPriority returns the bucket the worker should poll.
func (c *Config) ResolvedWorkerPriority() string {
	if c.Dispatcher.WorkerPriority != "" {
		return c.Dispatcher.WorkerPriority
	}
	return c.Queue.DefaultPriority
}

// Load reads configuration using Koanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
