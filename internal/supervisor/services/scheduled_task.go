// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/marquee-app/marquee/internal/metrics"
)

// defaultTaskTimeout bounds one run when the caller passes no timeout.
const defaultTaskTimeout = 30 * time.Minute

// TaskFunc is one run of a scheduled job.
type TaskFunc func(ctx context.Context) error

// ScheduledTaskConfig describes a periodic job.
type ScheduledTaskConfig struct {
	// Name identifies the job in logs and metrics.
	Name string

	// Interval between runs. Must be positive.
	Interval time.Duration

	// RunOnStart runs the task once before the first tick.
	RunOnStart bool

	// Timeout bounds a single run. Default: 30m
	Timeout time.Duration
}

// ScheduledTask runs a TaskFunc on a fixed interval under supervision.
// A failed run is logged and counted; it does not stop the loop, so the
// supervisor only restarts the task on a panic.
type ScheduledTask struct {
	cfg    ScheduledTaskConfig
	task   TaskFunc
	logger zerolog.Logger
}

// NewScheduledTask creates a scheduled job.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewScheduledTask(cfg ScheduledTaskConfig, task TaskFunc, logger zerolog.Logger) (*ScheduledTask, error) {
	if cfg.Name == "" {
		return nil, errors.New("scheduled task needs a name")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("scheduled task interval must be positive")
	}
	if task == nil {
		return nil, errors.New("scheduled task function is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTaskTimeout
	}
	return &ScheduledTask{
		cfg:    cfg,
		task:   task,
		logger: logger.With().Str("service", "job").Str("job", cfg.Name).Logger(),
	}, nil
}

// Serve implements suture.Service.
func (s *ScheduledTask) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.cfg.Interval).
		Bool("run_on_start", s.cfg.RunOnStart).
		Msg("Scheduled job starting")

	if s.cfg.RunOnStart {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduled job stopping")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

// run executes the task once with its own timeout.
func (s *ScheduledTask) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := s.task(runCtx)
	elapsed := time.Since(start)
	metrics.RecordJobRun(s.cfg.Name, elapsed, err)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn().Err(err).Dur("duration", elapsed).Msg("Scheduled job failed")
		return
	}
	s.logger.Debug().Dur("duration", elapsed).Msg("Scheduled job complete")
}

// String returns the job name for supervisor logs.
func (s *ScheduledTask) String() string {
	return s.cfg.Name
}
