// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/marquee-app/marquee/internal/config"
	"github.com/marquee-app/marquee/internal/recommend"
	"github.com/marquee-app/marquee/internal/supervisor"
	"github.com/marquee-app/marquee/internal/supervisor/services"
	"github.com/marquee-app/marquee/internal/tmdb"
)

// jobSpec is one scheduled job before it is wrapped as a service.
type jobSpec struct {
	name     string
	interval time.Duration
	task     services.TaskFunc
}

// buildJobs lists the enabled jobs. Catalog sync and trending refresh need
// TMDb; a zero interval disables a job.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func buildJobs(cfg *config.JobsConfig, tmdbCfg *config.TMDbConfig, rc *RecommendComponents, syncer *tmdb.Syncer, logger zerolog.Logger) []jobSpec {
	all := []jobSpec{
		{"similarity-refresh", cfg.SimilarityRefresh, func(ctx context.Context) error {
			_, err := rc.Similarity.Refresh(ctx)
			return err
		}},
		{"popular-refresh", cfg.PopularRefresh, func(ctx context.Context) error {
			_, err := rc.Generator.GenerateGeneral(ctx, recommend.TypePopular)
			return err
		}},
		{"batch-generation", cfg.BatchGeneration, func(ctx context.Context) error {
			res, err := rc.Generator.GenerateAll(ctx)
			if err != nil {
				return err
			}
			logger.Info().
				Int("users", res.Users).
				Int("succeeded", res.Succeeded).
				Int("failed", res.Failed).
				Int("written", res.Written).
				Msg("Batch generation finished")
			return nil
		}},
		{"cleanup", cfg.Cleanup, func(ctx context.Context) error {
			_, err := rc.Generator.CleanupExpired(ctx)
			return err
		}},
	}

	if syncer != nil {
		all = append(all,
			jobSpec{"catalog-sync", cfg.CatalogSync, func(ctx context.Context) error {
				if _, err := syncer.SyncGenres(ctx); err != nil {
					return fmt.Errorf("sync genres: %w", err)
				}
				if _, err := syncer.SyncPopular(ctx, tmdbCfg.SyncPages); err != nil {
					return fmt.Errorf("sync popular: %w", err)
				}
				return nil
			}},
			jobSpec{"trending-refresh", cfg.TrendingRefresh, func(ctx context.Context) error {
				_, err := rc.Generator.GenerateGeneral(ctx, recommend.TypeTrending)
				return err
			}},
		)
	}

	enabled := all[:0]
	for _, j := range all {
		if j.interval <= 0 {
			logger.Info().Str("job", j.name).Msg("Scheduled job disabled")
			continue
		}
		enabled = append(enabled, j)
	}
	return enabled
}

// registerJobs adds every enabled job to the jobs layer and returns how many
// were added.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func registerJobs(tree *supervisor.SupervisorTree, cfg *config.JobsConfig, jobs []jobSpec, logger zerolog.Logger) (int, error) {
	for _, j := range jobs {
		svc, err := services.NewScheduledTask(services.ScheduledTaskConfig{
			Name:       j.name,
			Interval:   j.interval,
			RunOnStart: cfg.RunOnStart,
			Timeout:    cfg.Timeout,
		}, j.task, logger)
		if err != nil {
			return 0, fmt.Errorf("job %s: %w", j.name, err)
		}
		tree.AddJobService(svc)
	}
	return len(jobs), nil
}
