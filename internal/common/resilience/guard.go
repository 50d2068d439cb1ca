// internal/common/resilience/guard.go
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merchant-onboarding/internal/common/logger"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Config controls one Guard. A zero RateLimit disables rate limiting and a
// false BreakerEnabled disables the circuit breaker.
type Config struct {
	RateLimit float64
	Burst     int

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32

	// IsFailure decides whether err counts against the breaker. Nil counts
	// every non-nil error except context cancellation.
	IsFailure func(err error) bool
}

// Guard wraps outbound calls to one dependency. It never retries: each Do
// invokes fn at most once.
type Guard struct {
	name    string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewGuard(name string, cfg Config, log logger.Logger) *Guard {
	g := &Guard{name: name}

	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	if cfg.BreakerEnabled {
		isFailure := cfg.IsFailure
		if isFailure == nil {
			isFailure = defaultIsFailure
		}
		minRequests := cfg.BreakerMinRequests
		ratio := cfg.BreakerFailureRatio
		log = logger.Component(log, "resilience")

		g.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.BreakerHalfOpenMaxCalls,
			Timeout:     cfg.BreakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < minRequests {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !isFailure(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state change", map[string]interface{}{
					"dependency": name,
					"from":       from.String(),
					"to":         to.String(),
				})
			},
		})
	}
	return g
}

func (g *Guard) Name() string {
	return g.name
}

// Do waits for a rate-limit token, then runs fn through the breaker.
func (g *Guard) Do(ctx context.Context, fn func(context.Context) error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limit wait: %w", g.name, err)
		}
	}

	if g.breaker == nil {
		return fn(ctx)
	}

	_, err := g.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// State reports the breaker state, or "disabled".
func (g *Guard) State() string {
	if g.breaker == nil {
		return "disabled"
	}
	return g.breaker.State().String()
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func defaultIsFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}
