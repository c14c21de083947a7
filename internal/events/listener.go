// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/marquee-app/marquee/internal/metrics"
)

// Handler reacts to one interaction event. A returned error triggers the
// router's retry policy.
type Handler func(ctx context.Context, e *InteractionEvent) error

// ListenerConfig tunes the watermill router behind a Listener.
type ListenerConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

// DefaultListenerConfig returns production defaults.
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
	}
}

type namedHandler struct {
	name    string
	handler Handler
}

// Listener routes interaction events from a Bus to registered handlers.
// Serve builds a fresh watermill router per call so a supervisor can
// restart it.
type Listener struct {
	bus      *Bus
	cfg      ListenerConfig
	handlers []namedHandler
	logger   zerolog.Logger

	readyOnce sync.Once
	ready     chan struct{}
}

// NewListener creates a Listener reading from bus.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewListener(bus *Bus, cfg ListenerConfig, logger zerolog.Logger) *Listener {
	return &Listener{
		bus:    bus,
		cfg:    cfg,
		logger: logger.With().Str("component", "event_listener").Logger(),
		ready:  make(chan struct{}),
	}
}

// Handle registers h under name. Must be called before Serve.
func (l *Listener) Handle(name string, h Handler) {
	l.handlers = append(l.handlers, namedHandler{name: name, handler: h})
}

// Ready is closed once the first router is subscribed and running.
func (l *Listener) Ready() <-chan struct{} {
	return l.ready
}

// Serve runs the router until ctx is canceled.
func (l *Listener) Serve(ctx context.Context) error {
	if len(l.handlers) == 0 {
		return errors.New("event listener has no handlers")
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: l.cfg.CloseTimeout}, l.bus.wmLogger)
	if err != nil {
		return fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      l.cfg.RetryMaxRetries,
			InitialInterval: l.cfg.RetryInitialInterval,
			MaxInterval:     l.cfg.RetryMaxInterval,
			Multiplier:      2.0,
			Logger:          l.bus.wmLogger,
		}.Middleware,
	)

	for _, nh := range l.handlers {
		router.AddConsumerHandler(nh.name, TopicInteractions, l.bus.Subscriber(), l.wrap(nh))
	}

	go func() {
		select {
		case <-router.Running():
			l.readyOnce.Do(func() { close(l.ready) })
			l.logger.Info().Int("handlers", len(l.handlers)).Msg("Event listener running")
		case <-ctx.Done():
		}
	}()

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

// wrap decodes the payload and records consumption metrics. Undecodable
// messages are acknowledged and dropped.
func (l *Listener) wrap(nh namedHandler) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		e, err := Unmarshal(msg.Payload)
		if err != nil {
			l.logger.Warn().Err(err).Str("handler", nh.name).Str("message_id", msg.UUID).Msg("Dropping malformed event")
			metrics.RecordEventConsumed(TopicInteractions, err)
			return nil
		}

		err = nh.handler(msg.Context(), e)
		metrics.RecordEventConsumed(TopicInteractions, err)
		if err != nil {
			return fmt.Errorf("%s: %w", nh.name, err)
		}
		return nil
	}
}

// String names the listener in supervisor logs.
func (l *Listener) String() string {
	return "event-listener"
}
