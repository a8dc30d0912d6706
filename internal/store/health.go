// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package store

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/metrics"
)

// HealthReport is the outcome of a PING/INFO probe.
type HealthReport struct {
	Healthy bool
	Stats   map[string]string
	Error   string
}

// infoFields are the INFO keys surfaced in a HealthReport.
var infoFields = map[string]bool{
	"redis_version":              true,
	"redis_mode":                 true,
	"uptime_in_seconds":          true,
	"connected_clients":          true,
	"blocked_clients":            true,
	"pubsub_clients":             true,
	"used_memory":                true,
	"used_memory_human":          true,
	"maxmemory_policy":           true,
	"total_connections_received": true,
	"total_commands_processed":   true,
	"instantaneous_ops_per_sec":  true,
	"keyspace_hits":              true,
	"keyspace_misses":            true,
	"expired_keys":               true,
	"evicted_keys":               true,
	"pubsub_channels":            true,
	"pubsub_patterns":            true,
}

// Health probes the command role. It never returns an error: failures
// degrade to Healthy=false with the error text.
func (s *Store) Health(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, DefaultHealthTimeout)
	defer cancel()

	report := HealthReport{Stats: make(map[string]string)}

	pong, err := s.Command.Ping(ctx).Result()
	if err != nil {
		report.Error = err.Error()
		metrics.SetStoreHealthy(false)
		logging.Warn().Err(err).Msg("Store health probe failed")
		return report
	}
	report.Healthy = true
	report.Stats["ping"] = pong

	// INFO is informational; a server that restricts it is still healthy.
	info, err := s.Command.Info(ctx).Result()
	if err != nil {
		report.Stats["info_error"] = err.Error()
	} else {
		for k, v := range ParseInfo(info) {
			if infoFields[k] {
				report.Stats[k] = v
			}
		}
	}

	pool := s.Command.PoolStats()
	report.Stats["pool_total_conns"] = strconv.FormatUint(uint64(pool.TotalConns), 10)
	report.Stats["pool_idle_conns"] = strconv.FormatUint(uint64(pool.IdleConns), 10)
	report.Stats["pool_hits"] = strconv.FormatUint(uint64(pool.Hits), 10)
	report.Stats["pool_timeouts"] = strconv.FormatUint(uint64(pool.Timeouts), 10)

	metrics.SetStoreHealthy(true)
	return report
}

// ParseInfo parses the text reply of INFO into key/value pairs.
// Section headers and blank lines are skipped.
func ParseInfo(info string) map[string]string {
	out := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(info))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[key] = value
	}
	return out
}
