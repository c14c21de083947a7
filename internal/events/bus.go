// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/marquee-app/marquee/internal/config"
	"github.com/marquee-app/marquee/internal/logging"
	"github.com/marquee-app/marquee/internal/metrics"
)

// Backend names accepted by NewBus.
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

// ErrBusClosed is returned when publishing on a closed Bus.
var ErrBusClosed = errors.New("event bus is closed")

// Bus publishes interaction events and hands out the matching subscriber.
//
// Thread Safety: Safe for concurrent use.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	server     *EmbeddedServer
	backend    string

	wmLogger watermill.LoggerAdapter
	logger   zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewBus builds the bus selected by cfg.Backend.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBus(cfg *config.EventsConfig, logger zerolog.Logger) (*Bus, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryBus(cfg.BufferSize, logger), nil
	case BackendNATS:
		var srv *EmbeddedServer
		url := cfg.NATSURL
		if cfg.EmbeddedServer {
			var err error
			srv, err = NewEmbeddedServer(cfg.EmbeddedHost, cfg.EmbeddedPort)
			if err != nil {
				return nil, fmt.Errorf("start embedded NATS server: %w", err)
			}
			url = srv.ClientURL()
			logger.Info().Str("url", url).Msg("Embedded NATS server started")
		}
		bus, err := NewNATSBus(url, logger)
		if err != nil {
			if srv != nil {
				srv.Shutdown()
			}
			return nil, err
		}
		bus.server = srv
		return bus, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// NewMemoryBus creates an in-process bus backed by a watermill gochannel.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewMemoryBus(bufferSize int64, logger zerolog.Logger) *Bus {
	logger = logger.With().Str("component", "events").Str("backend", BackendMemory).Logger()
	wmLogger := logging.NewWatermillAdapter(logger)

	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: bufferSize,
	}, wmLogger)

	return &Bus{
		publisher:  ch,
		subscriber: ch,
		backend:    BackendMemory,
		wmLogger:   wmLogger,
		logger:     logger,
	}
}

// NewNATSBus creates a bus over core NATS subjects at url.
//
// Subscriptions use no queue group, so every instance sees every event.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewNATSBus(url string, logger zerolog.Logger) (*Bus, error) {
	logger = logger.With().Str("component", "events").Str("backend", BackendNATS).Logger()
	wmLogger := logging.NewWatermillAdapter(logger)

	natsOpts := []natsgo.Option{
		natsgo.Name("marquee"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	marshaler := &wmNats.NATSMarshaler{}
	jetStream := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   marshaler,
		JetStream:   jetStream,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      marshaler,
		JetStream:        jetStream,
	}, wmLogger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}

	return &Bus{
		publisher:  pub,
		subscriber: sub,
		backend:    BackendNATS,
		wmLogger:   wmLogger,
		logger:     logger,
	}, nil
}

// Backend returns the backend name.
func (b *Bus) Backend() string {
	return b.backend
}

// Subscriber returns the watermill subscriber for routers.
func (b *Bus) Subscriber() message.Subscriber {
	return b.subscriber
}

// PublishInteraction serializes and publishes e on TopicInteractions.
func (b *Bus) PublishInteraction(ctx context.Context, e *InteractionEvent) (err error) {
	defer func() { metrics.RecordEventPublished(TopicInteractions, err) }()

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	data, err := Marshal(e)
	if err != nil {
		return err
	}

	msg := message.NewMessage(e.EventID, data)
	msg.SetContext(ctx)
	msg.Metadata.Set("user_id", strconv.Itoa(e.UserID))
	msg.Metadata.Set("type", e.Type)

	if err := b.publisher.Publish(TopicInteractions, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TopicInteractions, err)
	}
	return nil
}

// Close shuts down the publisher, subscriber and any embedded server.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	// The gochannel is both publisher and subscriber.
	if b.backend != BackendMemory {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if b.server != nil {
		b.server.Shutdown()
	}
	return errors.Join(errs...)
}
