// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// sampleCount reads the observation count of a histogram child.
func sampleCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	m, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("%T is not a prometheus.Metric", o)
	}
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return pb.GetHistogram().GetSampleCount()
}

// gaugeValue reads a gauge through its protobuf form.
func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var pb dto.Metric
	if err := g.Write(&pb); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return pb.GetGauge().GetValue()
}

func TestRecordStrategy(t *testing.T) {
	tests := []struct {
		name         string
		strategy     string
		items        int
		err          error
		wantItems    float64
		wantFailures float64
	}{
		{name: "success adds items", strategy: "test_collab", items: 4, wantItems: 4},
		{name: "failure counts failure only", strategy: "test_content", items: 9, err: errors.New("db down"), wantFailures: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordStrategy(tt.strategy, 5*time.Millisecond, tt.items, tt.err)

			if got := testutil.ToFloat64(RecommendStrategyItems.WithLabelValues(tt.strategy)); got != tt.wantItems {
				t.Errorf("items = %v, want %v", got, tt.wantItems)
			}
			if got := testutil.ToFloat64(RecommendStrategyFailures.WithLabelValues(tt.strategy)); got != tt.wantFailures {
				t.Errorf("failures = %v, want %v", got, tt.wantFailures)
			}
		})
	}
}

func TestRecordCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(CacheHits.WithLabelValues("test_lookup"))
	RecordCacheLookup("test_lookup", true)
	RecordCacheLookup("test_lookup", false)
	RecordCacheLookup("test_lookup", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("test_lookup")) - before; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("test_lookup")); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
}

func TestRecordBatch(t *testing.T) {
	RecordBatch(3, 0)
	if got := testutil.ToFloat64(BatchLastSuccess); got == 0 {
		t.Error("BatchLastSuccess not set after clean batch")
	}

	success := testutil.ToFloat64(BatchUsers.WithLabelValues("success"))
	failure := testutil.ToFloat64(BatchUsers.WithLabelValues("failure"))
	RecordBatch(2, 1)
	if got := testutil.ToFloat64(BatchUsers.WithLabelValues("success")) - success; got != 2 {
		t.Errorf("success delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(BatchUsers.WithLabelValues("failure")) - failure; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}
}

func TestRecordDBQuery(t *testing.T) {
	RecordDBQuery("SELECT", "test_movies", time.Millisecond, nil)
	RecordDBQuery("SELECT", "test_movies", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("SELECT", "test_movies")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestResultLabel(t *testing.T) {
	if got := resultLabel(nil); got != "success" {
		t.Errorf("resultLabel(nil) = %q, want success", got)
	}
	if got := resultLabel(errors.New("x")); got != "failure" {
		t.Errorf("resultLabel(err) = %q, want failure", got)
	}
}

func TestRecordJobRun(t *testing.T) {
	before := sampleCount(t, JobDuration.WithLabelValues("test_job"))

	RecordJobRun("test_job", 20*time.Millisecond, nil)
	RecordJobRun("test_job", 30*time.Millisecond, errors.New("timeout"))

	if got := sampleCount(t, JobDuration.WithLabelValues("test_job")) - before; got != 2 {
		t.Errorf("duration samples delta = %d, want 2", got)
	}
	if got := testutil.ToFloat64(JobRuns.WithLabelValues("test_job", "success")); got != 1 {
		t.Errorf("success runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(JobRuns.WithLabelValues("test_job", "failure")); got != 1 {
		t.Errorf("failure runs = %v, want 1", got)
	}
}

func TestSimilarityMatrixUsersGauge(t *testing.T) {
	SimilarityMatrixUsers.Set(42)
	if got := gaugeValue(t, SimilarityMatrixUsers); got != 42 {
		t.Errorf("SimilarityMatrixUsers = %v, want 42", got)
	}
}
