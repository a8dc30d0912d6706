// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/tomtom215/hearth/internal/models"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/hearth/config.yaml",
	"/etc/hearth/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvFile is loaded into the process environment when present.
const DotEnvFile = ".env"

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3002,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Addr:         "127.0.0.1:6379",
			DB:           0,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		},
		Queue: QueueConfig{
			Name:                    "notifications",
			DefaultPriority:         string(models.DefaultPriority),
			MonitorInterval:         15 * time.Second,
			BreakerMaxRequests:      1,
			BreakerInterval:         time.Minute,
			BreakerTimeout:          30 * time.Second,
			BreakerFailureThreshold: 5,
		},
		Dispatcher: DispatcherConfig{
			WorkerEnabled:   true,
			WorkerPriority:  "",
			PollInterval:    time.Second,
			DequeueTimeout:  time.Second,
			MaxAttempts:     models.DefaultMaxAttempts,
			RecordTTL:       models.DefaultRecordTTL,
			DedupeTTL:       24 * time.Hour,
			DedupeCacheSize: 10000,
			ExecuteTimeout:  10 * time.Second,
		},
		Realtime: RealtimeConfig{
			AllowedOrigins: []string{"*"},
			SendBuffer:     256,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting (.env is merged into the environment first)
func LoadWithKoanf() (*Config, error) {
	// A missing .env is the normal case in containers.
	if _, err := os.Stat(DotEnvFile); err == nil {
		if err := godotenv.Load(DotEnvFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
		}
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"realtime.allowed_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings; YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so the process environment cannot pollute config.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"port":                  "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"redis_addr":          "redis.addr",
	"redis_username":      "redis.username",
	"redis_password":      "redis.password",
	"redis_db":            "redis.db",
	"redis_dial_timeout":  "redis.dial_timeout",
	"redis_read_timeout":  "redis.read_timeout",
	"redis_write_timeout": "redis.write_timeout",
	"redis_pool_size":     "redis.pool_size",

	"queue_name":                      "queue.name",
	"queue_default_priority":          "queue.default_priority",
	"queue_monitor_interval":          "queue.monitor_interval",
	"queue_breaker_max_requests":      "queue.breaker_max_requests",
	"queue_breaker_interval":          "queue.breaker_interval",
	"queue_breaker_timeout":           "queue.breaker_timeout",
	"queue_breaker_failure_threshold": "queue.breaker_failure_threshold",

	"worker_enabled":               "dispatcher.worker_enabled",
	"worker_priority":              "dispatcher.worker_priority",
	"worker_poll_interval":         "dispatcher.poll_interval",
	"worker_dequeue_timeout":       "dispatcher.dequeue_timeout",
	"notification_max_attempts":    "dispatcher.max_attempts",
	"notification_ttl":             "dispatcher.record_ttl",
	"notification_dedupe_ttl":      "dispatcher.dedupe_ttl",
	"notification_dedupe_size":     "dispatcher.dedupe_cache_size",
	"notification_execute_timeout": "dispatcher.execute_timeout",

	"ws_allowed_origins": "realtime.allowed_origins",
	"ws_send_buffer":     "realtime.send_buffer",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - REDIS_ADDR -> redis.addr
//   - WORKER_POLL_INTERVAL -> dispatcher.poll_interval
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
