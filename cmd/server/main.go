// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/hearth/internal/api"
	"github.com/tomtom215/hearth/internal/broadcast"
	"github.com/tomtom215/hearth/internal/config"
	"github.com/tomtom215/hearth/internal/dispatcher"
	"github.com/tomtom215/hearth/internal/ephemeral"
	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/queue"
	"github.com/tomtom215/hearth/internal/store"
	"github.com/tomtom215/hearth/internal/supervisor"
	"github.com/tomtom215/hearth/internal/supervisor/services"
	ws "github.com/tomtom215/hearth/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("redis_addr", cfg.Redis.Addr).
		Str("queue", cfg.Queue.Name).
		Str("default_priority", cfg.Queue.DefaultPriority).
		Bool("worker_enabled", cfg.Dispatcher.WorkerEnabled).
		Msg("Starting Hearth with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	openCtx, openCancel := context.WithTimeout(ctx, 15*time.Second)
	s, err := store.Open(openCtx, store.Options(&cfg.Redis))
	openCancel()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to backing store")
	}
	defer func() {
		if err := s.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing backing store")
		}
	}()

	q := queue.New(s.Command, queue.BreakerConfigFrom(&cfg.Queue))
	router := broadcast.NewRouter(s.Publisher, s.Subscriber)
	records := ephemeral.New(s.Command)

	guard := dispatcher.NewGuard(s.Command, cfg.Dispatcher.DedupeCacheSize, cfg.Dispatcher.DedupeTTL)
	d := dispatcher.New(dispatcher.OptionsFromConfig(cfg), q, router, records, guard)
	if err := d.Attach(router); err != nil {
		logging.Fatal().Err(err).Msg("Failed to subscribe dispatcher")
	}

	hub := ws.NewHub(cfg.Realtime.SendBuffer)
	if err := ws.NewGateway(hub).Attach(router); err != nil {
		logging.Fatal().Err(err).Msg("Failed to subscribe WebSocket gateway")
	}

	deps := api.Deps{
		Config:     cfg,
		Dispatcher: d,
		Queue:      q,
		Store:      s,
		Records:    records,
		Hub:        hub,
	}

	pipeline := supervisor.Pipeline{
		Guard:   guard,
		Monitor: services.NewQueueMonitorService(s, q, cfg.Queue.Name, cfg.Queue.MonitorInterval),
		Router:  router,
		Hub:     services.NewWebSocketHubService(hub),
	}

	if cfg.Dispatcher.WorkerEnabled {
		worker := dispatcher.NewWorker(d, q, dispatcher.WorkerOptionsFromConfig(cfg))
		deps.Worker = worker
		pipeline.Worker = worker
		logging.Info().
			Str("priority", string(worker.Priority())).
			Dur("poll_interval", cfg.Dispatcher.PollInterval).
			Msg("Queue worker enabled")
	} else {
		logging.Info().Msg("Queue worker disabled (WORKER_ENABLED=false); pub/sub path only")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(deps, nil).SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	pipeline.HTTP = services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout)

	// Bridge zerolog to slog for sutureslog
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	n := tree.AddPipeline(pipeline)
	logging.Info().Int("services", n).Str("addr", server.Addr).Msg("Pipeline services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	d.Wait()

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Hearth stopped")
}
