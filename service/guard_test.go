package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AnTengye/recscan/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardedCompleterPassThrough(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	inner := &scriptedCompleter{response: "- item"}

	g := NewGuardedCompleter(inner, GuardSettings{MaxFailures: 3, OpenFor: time.Minute}, metrics)
	assert.Equal(t, "scripted", g.Name())

	out, err := g.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "- item", out)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.completions.WithLabelValues("scripted", OutcomeOK)))
}

func TestGuardedCompleterBreakerOpens(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	inner := &scriptedCompleter{err: errors.New("503 service unavailable")}

	g := NewGuardedCompleter(inner, GuardSettings{MaxFailures: 2, OpenFor: time.Hour}, metrics)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := g.Complete(ctx, CompletionRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503 service unavailable")
	}

	_, err := g.Complete(ctx, CompletionRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls(), "an open breaker must not reach the backend")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.completions.WithLabelValues("scripted", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.completions.WithLabelValues("scripted", OutcomeRejected)))
}

func TestGuardedCompleterCancellationDoesNotTrip(t *testing.T) {
	inner := &scriptedCompleter{err: context.Canceled}
	g := NewGuardedCompleter(inner, GuardSettings{MaxFailures: 1, OpenFor: time.Hour}, nil)

	for i := 0; i < 3; i++ {
		_, err := g.Complete(context.Background(), CompletionRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, 3, inner.calls())
}

func TestGuardedCompleterRateLimit(t *testing.T) {
	inner := &scriptedCompleter{response: "ok"}
	// One request per minute: the second call cannot be admitted before the deadline.
	g := NewGuardedCompleter(inner, GuardSettings{RequestsPerMinute: 1}, nil)

	_, err := g.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = g.Complete(ctx, CompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
	assert.Equal(t, 1, inner.calls())
}

func TestGuardedCompleterUnguarded(t *testing.T) {
	inner := &scriptedCompleter{response: "ok"}
	g := NewGuardedCompleter(inner, GuardSettings{}, nil)

	for i := 0; i < 5; i++ {
		out, err := g.Complete(context.Background(), CompletionRequest{})
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
	}
}

func TestGuardedCompleterLogsBreakerTripWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(&logger.Config{Level: "warn", Format: "text", Output: &buf})
	t.Cleanup(func() { logger.Init(&logger.Config{Level: "error"}) })

	inner := &scriptedCompleter{err: errors.New("503 service unavailable")}
	g := NewGuardedCompleter(inner, GuardSettings{MaxFailures: 1, OpenFor: time.Hour}, nil)

	ctx := logger.WithCompany(logger.WithJob(context.Background(), "job-7"), "ACME")
	_, err := g.Complete(ctx, CompletionRequest{})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "completion breaker state changed")
	assert.Contains(t, out, "job_id=job-7")
	assert.Contains(t, out, "company=ACME")
	assert.Contains(t, out, "to=open")
	assert.Equal(t, 1, strings.Count(out, "breaker state changed"))
}
