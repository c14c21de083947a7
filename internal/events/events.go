// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TopicInteractions receives one message per recorded user interaction.
const TopicInteractions = "interactions.recorded"

// InteractionEvent announces that a user rated, favorited or otherwise
// interacted with a movie.
type InteractionEvent struct {
	EventID    string    `json:"event_id"`
	UserID     int       `json:"user_id"`
	MovieID    int       `json:"movie_id"`
	Type       string    `json:"type"`
	Value      *float64  `json:"value,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewInteractionEvent creates an event with a fresh id stamped at occurredAt.
func NewInteractionEvent(userID, movieID int, eventType string, value *float64, occurredAt time.Time) *InteractionEvent {
	return &InteractionEvent{
		EventID:    uuid.New().String(),
		UserID:     userID,
		MovieID:    movieID,
		Type:       eventType,
		Value:      value,
		OccurredAt: occurredAt.UTC(),
	}
}

// Validate checks required fields.
func (e *InteractionEvent) Validate() error {
	var errs []error
	if e.EventID == "" {
		errs = append(errs, errors.New("event_id is required"))
	}
	if e.UserID <= 0 {
		errs = append(errs, fmt.Errorf("user_id must be positive, got %d", e.UserID))
	}
	if e.MovieID < 0 {
		errs = append(errs, fmt.Errorf("movie_id must not be negative, got %d", e.MovieID))
	}
	if e.Type == "" {
		errs = append(errs, errors.New("type is required"))
	}
	return errors.Join(errs...)
}

// Marshal validates and encodes an event.
func Marshal(e *InteractionEvent) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal decodes and validates an event.
func Unmarshal(data []byte) (*InteractionEvent, error) {
	var e InteractionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	return &e, nil
}
