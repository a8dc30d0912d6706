// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

// Package config provides layered configuration loading for Hearth.
//
// Sources are merged in order, later ones winning:
//
//  1. Built-in defaults (see defaultConfig)
//  2. A .env file, if present, merged into the process environment
//  3. An optional YAML file (CONFIG_PATH, then config.yaml, then /etc/hearth/config.yaml)
//  4. Environment variables, through an explicit name mapping
//
// # Key Environment Variables
//
//	REDIS_ADDR                host:port of the Redis server (default 127.0.0.1:6379)
//	HTTP_PORT / PORT          HTTP listen port (default 3002)
//	QUEUE_NAME                durable queue name (default notifications)
//	QUEUE_DEFAULT_PRIORITY    priority applied when a submission omits one (default low)
//	WORKER_PRIORITY           bucket the worker drains (default: QUEUE_DEFAULT_PRIORITY)
//	WORKER_POLL_INTERVAL      worker tick (default 1s)
//	NOTIFICATION_TTL          record lifetime (default 168h)
//	NOTIFICATION_MAX_ATTEMPTS worker deliveries before dead-lettering (default 3)
//	LOG_LEVEL / LOG_FORMAT    zerolog level and output format
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
package config
