// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package scheduler runs the periodic cache warm-up. Each run reloads the
// location payloads and, when object storage is configured, publishes the
// fresh feature collection as a snapshot.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"newsmap/internal/metrics"
	"newsmap/pkg/models"
)

const (
	jobName    = "warm"
	runTimeout = 2 * time.Minute
)

// Warmer reloads cached payloads and serves the feature collection.
type Warmer interface {
	Warm(ctx context.Context) error
	FeatureCollection(ctx context.Context) models.FeatureCollection
}

// Publisher uploads a feature collection snapshot.
type Publisher interface {
	Publish(ctx context.Context, fc models.FeatureCollection) error
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron    *cron.Cron
	warmer  Warmer
	publish Publisher
}

// New creates a Scheduler. publish may be nil.
func New(warmer Warmer, publish Publisher) *Scheduler {
	logger := slogLogger{}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
		warmer:  warmer,
		publish: publish,
	}
}

// Start schedules the warm-up on spec (standard five-field cron syntax or a
// descriptor such as "@every 10m") and starts the runner.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("schedule warm-up %q: %w", spec, err)
	}
	s.cron.Start()
	slog.Info("cache warm-up scheduled", "schedule", spec)
	return nil
}

// Stop stops scheduling and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("warm-up still running at shutdown")
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	if err := s.RunOnce(ctx); err != nil {
		slog.Error("scheduled warm-up failed", "error", err)
	}
}

// RunOnce warms the cache and publishes a snapshot.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	if err := s.warmer.Warm(ctx); err != nil {
		metrics.JobRuns.WithLabelValues(jobName, "error").Inc()
		return err
	}

	if s.publish != nil {
		fc := s.warmer.FeatureCollection(ctx)
		if err := s.publish.Publish(ctx, fc); err != nil {
			metrics.JobRuns.WithLabelValues(jobName, "error").Inc()
			return fmt.Errorf("publish snapshot: %w", err)
		}
	}

	metrics.JobRuns.WithLabelValues(jobName, "ok").Inc()
	slog.Info("cache warmed", "duration", time.Since(start))
	return nil
}

// slogLogger adapts slog to cron.Logger.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
