package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"video-qa/internal/app/common"
)

// RetryConfig bounds the capped exponential backoff applied to failed calls
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// RateLimitConfig spaces calls to the upstream API
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// DefaultRetryConfig mirrors the upstream guidance for rate-limited embedding APIs
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      5,
		InitialInterval: 2 * time.Second,
		MaxInterval:     120 * time.Second,
		Multiplier:      2,
	}
}

// ResilientProvider decorates a provider with rate limiting and retries.
// Only errors classified by IsRetryable are retried.
type ResilientProvider struct {
	inner   EmbeddingProvider
	limiter *rate.Limiter
	retry   RetryConfig
	logger  common.Logger
}

// NewResilientProvider wraps inner
func NewResilientProvider(inner EmbeddingProvider, retry RetryConfig, limit RateLimitConfig, logger common.Logger) *ResilientProvider {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if limit.RequestsPerMinute > 0 {
		burst := limit.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit.RequestsPerMinute)), burst)
	}
	if logger == nil {
		logger = common.NopLogger()
	}
	return &ResilientProvider{inner: inner, limiter: limiter, retry: retry, logger: logger}
}

func (r *ResilientProvider) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(r.retry.InitialInterval),
		backoff.WithMaxInterval(r.retry.MaxInterval),
		backoff.WithMultiplier(r.retry.Multiplier),
		backoff.WithMaxElapsedTime(0),
	)
	maxRetries := r.retry.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(maxRetries)), ctx)
}

func withRetry[T any](ctx context.Context, r *ResilientProvider, op string, fn func() (T, error)) (T, error) {
	attempts := 0
	result, err := backoff.RetryNotifyWithData(func() (T, error) {
		attempts++
		if err := r.limiter.Wait(ctx); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		v, err := fn()
		if err != nil && !IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, r.newBackOff(ctx), func(err error, delay time.Duration) {
		r.logger.Warn("Embedding call failed, backing off",
			"operation", op,
			"attempt", attempts,
			"delay", delay,
			"error", err)
	})
	if err != nil {
		return result, fmt.Errorf("%s failed after %d attempt(s): %w", op, attempts, err)
	}
	return result, nil
}

// GenerateEmbedding embeds one text with rate limiting and retries
func (r *ResilientProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return withRetry(ctx, r, "embed", func() ([]float32, error) {
		return r.inner.GenerateEmbedding(ctx, text)
	})
}

// GenerateEmbeddings embeds a batch; a non-batching inner provider is called once per text
func (r *ResilientProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if bp, ok := r.inner.(BatchEmbeddingProvider); ok {
		return withRetry(ctx, r, "embed batch", func() ([][]float32, error) {
			return bp.GenerateEmbeddings(ctx, texts)
		})
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := r.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// GetProviderInfo returns the wrapped provider's info
func (r *ResilientProvider) GetProviderInfo() ProviderInfo {
	return r.inner.GetProviderInfo()
}
