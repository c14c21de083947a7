// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/marquee-app/marquee/internal/config"
	"github.com/marquee-app/marquee/internal/logging"
	"github.com/marquee-app/marquee/internal/metrics"
)

// BreakerName labels the TMDb circuit breaker in metrics.
const BreakerName = "tmdb-api"

// CircuitBreakerClient wraps an API with the circuit breaker pattern so an
// unavailable TMDb fails fast instead of stalling scheduled syncs.
//
// The breaker uses real time for its interval and timeout; tests exercise
// the trip condition, not recovery timing.
type CircuitBreakerClient struct {
	api  API
	cb   *gobreaker.CircuitBreaker[interface{}]
	name string
}

var _ API = (*CircuitBreakerClient)(nil)

// NewCircuitBreakerClient wraps api. Configuration:
//   - 3 concurrent probe requests in half-open state
//   - 1 minute measurement window
//   - cfg.BreakerOpenTimeout (default 2 minutes) before half-open
//   - opens at cfg.BreakerFailureRatio (default 60%) with at least
//     cfg.BreakerMinRequests (default 10) requests
func NewCircuitBreakerClient(api API, cfg *config.TMDbConfig) *CircuitBreakerClient {
	minRequests := cfg.BreakerMinRequests
	if minRequests == 0 {
		minRequests = 10
	}
	ratio := cfg.BreakerFailureRatio
	if ratio <= 0 {
		ratio = 0.6
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = 2 * time.Minute
	}

	metrics.CircuitBreakerState.WithLabelValues(BreakerName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(BreakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        BreakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     openTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= ratio
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening TMDb circuit")
			}
			return shouldTrip
		},

		// Upstream 4xx other than 429 means our request was wrong, not
		// that TMDb is unhealthy.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Retryable()
			}
			return errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{api: api, cb: cb, name: BreakerName}
}

// State returns the current breaker state name.
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

// execute wraps an API call with circuit breaker protection
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] TMDb request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
			counts := cbc.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Trending fetches trending movies with circuit breaker protection
func (cbc *CircuitBreakerClient) Trending(ctx context.Context, window string, page int) (*MoviePage, error) {
	return castResult[MoviePage](cbc.execute(func() (interface{}, error) {
		return cbc.api.Trending(ctx, window, page)
	}))
}

// Popular fetches popular movies with circuit breaker protection
func (cbc *CircuitBreakerClient) Popular(ctx context.Context, page int) (*MoviePage, error) {
	return castResult[MoviePage](cbc.execute(func() (interface{}, error) {
		return cbc.api.Popular(ctx, page)
	}))
}

// Genres fetches the genre list with circuit breaker protection
func (cbc *CircuitBreakerClient) Genres(ctx context.Context) (*GenreList, error) {
	return castResult[GenreList](cbc.execute(func() (interface{}, error) {
		return cbc.api.Genres(ctx)
	}))
}
