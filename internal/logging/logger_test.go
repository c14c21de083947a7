// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Int("user_id", 7).Msg("generated")

	out := buf.String()
	if !strings.Contains(out, `"message":"generated"`) {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, `"user_id":7`) {
		t.Errorf("output missing field: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	defer Init(DefaultConfig())

	logger := WithComponent("similarity")
	logger.Info().Msg("refreshed")

	if !strings.Contains(buf.String(), `"component":"similarity"`) {
		t.Errorf("output missing component: %s", buf.String())
	}
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-1"`) {
		t.Errorf("output missing request_id: %s", out)
	}
	if !strings.Contains(out, `"correlation_id":"corr-1"`) {
		t.Errorf("output missing correlation_id: %s", out)
	}
}

func TestContextIDsMissing(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext = %q, want empty", got)
	}
	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("CorrelationIDFromContext = %q, want empty", got)
	}
	if got := len(GenerateCorrelationID()); got != 8 {
		t.Errorf("len(GenerateCorrelationID()) = %d, want 8", got)
	}
}

func TestSlogHandler(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	defer Init(DefaultConfig())

	tests := []struct {
		name  string
		build func(*slog.Logger) *slog.Logger
		want  []string
	}{
		{
			name:  "attrs before group stay unqualified",
			build: func(l *slog.Logger) *slog.Logger { return l.With("service", "api").WithGroup("event") },
			want:  []string{`"level":"warn"`, `"service":"api"`, `"event.attempt":2`},
		},
		{
			name:  "attrs after group are qualified",
			build: func(l *slog.Logger) *slog.Logger { return l.WithGroup("event").With("service", "api") },
			want:  []string{`"event.service":"api"`, `"event.attempt":2`},
		},
		{
			name: "nested groups",
			build: func(l *slog.Logger) *slog.Logger {
				return l.With("tree", "marquee").WithGroup("sup").With("layer", "jobs").WithGroup("event")
			},
			want: []string{`"tree":"marquee"`, `"sup.layer":"jobs"`, `"sup.event.attempt":2`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := tt.build(slog.New(NewSlogHandler(NewTestLogger(&buf))))
			logger.Warn("service restarted", "attempt", 2)

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %s: %s", w, out)
				}
			}
		})
	}
}

func TestWatermillAdapter(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	defer Init(DefaultConfig())

	adapter := NewWatermillAdapter(NewTestLogger(&buf)).With(watermill.LogFields{"topic": "interactions"})
	adapter.Error("publish failed", errors.New("boom"), watermill.LogFields{"attempt": 1})

	out := buf.String()
	for _, want := range []string{`"topic":"interactions"`, `"error":"boom"`, `"attempt":1`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}
