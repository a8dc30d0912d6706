// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package services

import (
	"context"
	"time"

	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/models"
	"github.com/tomtom215/hearth/internal/store"
)

// StoreProber is satisfied by *store.Store.
type StoreProber interface {
	Health(ctx context.Context) store.HealthReport
}

// DepthReader is satisfied by *queue.Queue. Length updates the depth gauge
// as a side effect.
type DepthReader interface {
	Length(ctx context.Context, name string, priority models.Priority) (int64, error)
	DeadLength(ctx context.Context, name string) (int64, error)
}

// QueueMonitorService periodically probes the store and reads every queue
// bucket so the health and depth gauges stay current between API calls.
type QueueMonitorService struct {
	store     StoreProber
	queue     DepthReader
	queueName string
	interval  time.Duration
	name      string
}

// NewQueueMonitorService creates a monitor. A non-positive interval means 15s.
func NewQueueMonitorService(s StoreProber, q DepthReader, queueName string, interval time.Duration) *QueueMonitorService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &QueueMonitorService{
		store:     s,
		queue:     q,
		queueName: queueName,
		interval:  interval,
		name:      "queue-monitor",
	}
}

// Serve implements suture.Service. Probe failures are logged, never returned,
// so an outage does not put the data layer into restart backoff.
func (m *QueueMonitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Sample(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Sample(ctx)
		}
	}
}

// Sample runs one probe and returns the depths it read, keyed by priority
// plus "dead".
func (m *QueueMonitorService) Sample(ctx context.Context) map[string]int64 {
	depths := make(map[string]int64, len(models.AllPriorities)+1)

	if report := m.store.Health(ctx); !report.Healthy {
		logging.Debug().Str("error", report.Error).Msg("Queue monitor skipped: store unhealthy")
		return depths
	}

	for _, p := range models.AllPriorities {
		n, err := m.queue.Length(ctx, m.queueName, p)
		if err != nil {
			logging.Warn().Err(err).Str("priority", string(p)).Msg("Queue monitor could not read depth")
			continue
		}
		depths[string(p)] = n
	}
	if n, err := m.queue.DeadLength(ctx, m.queueName); err == nil {
		depths["dead"] = n
		if n > 0 {
			logging.Warn().Int64("dead", n).Str("queue", m.queueName).Msg("Dead letter list is not empty")
		}
	}
	return depths
}

func (m *QueueMonitorService) String() string {
	return m.name
}
