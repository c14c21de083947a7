// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/marquee-app/marquee/internal/cache"
	"github.com/marquee-app/marquee/internal/config"
	"github.com/marquee-app/marquee/internal/metrics"
)

// Response cache lifetimes per endpoint family.
const (
	trendingCacheTTL = time.Hour
	popularCacheTTL  = 2 * time.Hour
	genresCacheTTL   = 24 * time.Hour
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client handles communication with the TMDb v3 HTTP API.
//
// Thread Safety: Safe for concurrent use. The limiter is shared by all
// requests made through one Client.
type Client struct {
	baseURL        string
	apiKey         string
	language       string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
	cache          cache.Store
	logger         zerolog.Logger
}

// NewClient creates a TMDb client. store may be nil to disable response caching.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewClient(cfg *config.TMDbConfig, store cache.Store, logger zerolog.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 3
	}

	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		language:       cfg.Language,
		client:         &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(rate.Limit(rps), burst),
		maxRetries:     retries,
		retryBaseDelay: time.Second,
		cache:          store,
		logger:         logger.With().Str("component", "tmdb").Logger(),
	}
}

// Trending fetches one page of /trending/movie/{window}.
func (c *Client) Trending(ctx context.Context, window string, page int) (*MoviePage, error) {
	if window != "day" && window != "week" {
		return nil, fmt.Errorf("tmdb: invalid trending window %q", window)
	}
	var out MoviePage
	params := url.Values{"page": {strconv.Itoa(page)}}
	if err := c.get(ctx, "/trending/movie/"+window, params, trendingCacheTTL, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Popular fetches one page of /movie/popular.
func (c *Client) Popular(ctx context.Context, page int) (*MoviePage, error) {
	var out MoviePage
	params := url.Values{"page": {strconv.Itoa(page)}}
	if err := c.get(ctx, "/movie/popular", params, popularCacheTTL, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Genres fetches /genre/movie/list.
func (c *Client) Genres(ctx context.Context) (*GenreList, error) {
	var out GenreList
	if err := c.get(ctx, "/genre/movie/list", url.Values{}, genresCacheTTL, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get performs a cached GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, ttl time.Duration, out interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("tmdb: API key not configured")
	}
	if c.language != "" {
		params.Set("language", c.language)
	}

	// The cache key never contains the API key.
	key := cache.TMDbResponseKey(endpoint, params.Encode())
	if c.cache != nil {
		data, err := c.cache.Get(ctx, key)
		if err == nil {
			if err := json.Unmarshal(data, out); err == nil {
				metrics.RecordCacheLookup("tmdb", true)
				return nil
			}
		}
		metrics.RecordCacheLookup("tmdb", false)
	}

	withKey := url.Values{}
	for k, v := range params {
		withKey[k] = v
	}
	withKey.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, withKey.Encode())

	body, err := c.doRequestWithRetry(ctx, endpoint, reqURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("tmdb %s: failed to decode response: %w", endpoint, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, ttl); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to cache TMDb response")
		}
	}
	return nil
}

// doRequestWithRetry performs a rate-limited GET, retrying on HTTP 429 and
// 5xx with exponential backoff (base, 2*base, 4*base...). A Retry-After
// header in seconds overrides the computed delay.
func (c *Client) doRequestWithRetry(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("tmdb %s: rate limiter: %w", endpoint, err)
		}

		body, retryAfter, err := c.doRequest(ctx, endpoint, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == c.maxRetries-1 {
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter > 0 {
			delay = retryAfter
		}
		c.logger.Debug().
			Err(err).
			Str("endpoint", endpoint).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Retrying TMDb request")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("tmdb %s: giving up after %d attempts: %w", endpoint, c.maxRetries, lastErr)
}

// doRequest performs one GET. It returns the body on 2xx, otherwise an
// error and any Retry-After delay the server asked for.
func (c *Client) doRequest(ctx context.Context, endpoint, reqURL string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("tmdb %s: failed to create request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordTMDbRequest(endpoint, 0)
		return nil, 0, fmt.Errorf("tmdb %s: request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.RecordTMDbRequest(endpoint, resp.StatusCode)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, 0, fmt.Errorf("tmdb %s: failed to read response: %w", endpoint, err)
		}
		return body, 0, nil
	}

	apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, apiErr) // best effort: status_message only
	}

	var retryAfter time.Duration
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			retryAfter = time.Duration(seconds) * time.Second
		}
	}
	return nil, retryAfter, apiErr
}
