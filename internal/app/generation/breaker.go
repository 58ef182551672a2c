package generation

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"video-qa/internal/app/common"
)

// BreakerSettings configures the circuit breaker around a generator
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings trips after 60% failures over at least 3 requests
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// BreakerGenerator fails fast while the upstream model keeps failing
type BreakerGenerator struct {
	inner   Generator
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerGenerator wraps inner with a circuit breaker
func NewBreakerGenerator(inner Generator, s BreakerSettings, logger common.Logger) *BreakerGenerator {
	if logger == nil {
		logger = common.NopLogger()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Generator circuit breaker state changed", "generator", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// caller cancellation says nothing about upstream health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerGenerator{inner: inner, breaker: cb}
}

func (b *BreakerGenerator) Generate(ctx context.Context, prompt, systemInstruction string, temperature float32) (string, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Generate(ctx, prompt, systemInstruction, temperature)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (b *BreakerGenerator) Name() string {
	return b.inner.Name()
}

// State exposes the breaker state for health reporting
func (b *BreakerGenerator) State() string {
	return b.breaker.State().String()
}
