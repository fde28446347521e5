package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnTengye/recscan/pkg/logger"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GuardSettings bound how hard a completion backend is driven.
type GuardSettings struct {
	// RequestsPerMinute caps call rate; 0 disables the limiter.
	RequestsPerMinute int
	// MaxFailures consecutive failures open the breaker; 0 disables it.
	MaxFailures int
	// OpenFor is how long an open breaker rejects calls before probing again.
	OpenFor time.Duration
}

// GuardedCompleter shares one rate limiter and circuit breaker across all
// rows of all scans, so parallel workers respect the backend's limits.
type GuardedCompleter struct {
	next    Completer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *Metrics
}

func NewGuardedCompleter(next Completer, s GuardSettings, metrics *Metrics) *GuardedCompleter {
	g := &GuardedCompleter{next: next, metrics: metrics}

	if s.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.RequestsPerMinute)), 1)
	}

	if s.MaxFailures > 0 {
		maxFailures := uint32(s.MaxFailures)
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        next.Name(),
			MaxRequests: 1,
			Timeout:     s.OpenFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: func(err error) bool {
				// A caller giving up says nothing about the backend's health.
				return err == nil || errors.Is(err, context.Canceled)
			},
		})
	}
	return g
}

func (g *GuardedCompleter) Name() string { return g.next.Name() }

func (g *GuardedCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.metrics.ObserveCompletion(g.Name(), OutcomeRateLimited)
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	if g.breaker == nil {
		out, err := g.next.Complete(ctx, req)
		g.observe(err)
		return out, err
	}

	before := g.breaker.State()
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Complete(ctx, req)
	})
	if after := g.breaker.State(); after != before {
		logger.Warn(ctx, "completion breaker state changed",
			"provider", g.Name(), "from", before.String(), "to", after.String())
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		g.metrics.ObserveCompletion(g.Name(), OutcomeRejected)
		return "", fmt.Errorf("%s unavailable: %w", g.Name(), err)
	}
	g.observe(err)
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (g *GuardedCompleter) observe(err error) {
	if err != nil {
		g.metrics.ObserveCompletion(g.Name(), OutcomeError)
		return
	}
	g.metrics.ObserveCompletion(g.Name(), OutcomeOK)
}
