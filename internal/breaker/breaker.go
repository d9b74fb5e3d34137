// Package breaker guards each remote capability with a circuit breaker so a
// degraded downstream stops receiving requests that would only time out.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/imbuy/marketplace/internal/config"
)

// ErrServiceUnavailable is returned when the breaker is open (or half-open
// and saturated): the call was short-circuited before anything was published.
var ErrServiceUnavailable = errors.New("service unavailable")

// errSlowCall marks a call that succeeded but exceeded the slow-call
// threshold. It is recorded as a failure by the breaker and stripped before
// the result reaches the caller.
var errSlowCall = errors.New("slow call")

// CapabilityBreaker wraps one remote capability. Counts reset every
// WaitDurationInOpenState while closed, which stands in for the fixed-size
// sliding window of the upstream configuration.
type CapabilityBreaker struct {
	cb     *gobreaker.CircuitBreaker
	cfg    config.BreakerConfig
	logger *slog.Logger
}

func New(name string, cfg config.BreakerConfig, logger *slog.Logger) *CapabilityBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.PermittedCallsInHalfOpen,
		Interval:    cfg.WaitDurationInOpenState,
		Timeout:     cfg.WaitDurationInOpenState,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinimumNumberOfCalls {
				return false
			}
			failureRate := float64(counts.TotalFailures) / float64(counts.Requests) * 100
			return failureRate >= cfg.FailureRateThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &CapabilityBreaker{
		cb:     gobreaker.NewCircuitBreaker(settings),
		cfg:    cfg,
		logger: logger,
	}
}

func (b *CapabilityBreaker) Name() string {
	return b.cb.Name()
}

// State reports the breaker's current state string, for logs and tests.
func (b *CapabilityBreaker) State() string {
	return b.cb.State().String()
}

// Execute runs fn under the breaker.
//
// When the breaker is open, fn is never invoked and ErrServiceUnavailable is
// returned immediately. A successful call slower than the slow-call
// threshold counts against the breaker, but its result is still handed to
// the caller.
func Execute[T any](ctx context.Context, b *CapabilityBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	result, err := b.cb.Execute(func() (interface{}, error) {
		start := time.Now()
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if b.cfg.SlowCallDurationThreshold > 0 && time.Since(start) > b.cfg.SlowCallDurationThreshold {
			return value, errSlowCall
		}
		return value, nil
	})

	switch {
	case err == nil:
		return result.(T), nil
	case errors.Is(err, errSlowCall):
		b.logger.Warn("slow call recorded against breaker",
			"breaker", b.cb.Name(),
			"threshold", b.cfg.SlowCallDurationThreshold,
		)
		return result.(T), nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return zero, fmt.Errorf("%s: %w", b.cb.Name(), ErrServiceUnavailable)
	default:
		return zero, err
	}
}
