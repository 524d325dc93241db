package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// ResilientConfig holds configuration for the resilient KV wrapper
type ResilientConfig struct {
	// EnableCircuitBreaker stops calling a failing backend for a while
	EnableCircuitBreaker bool

	// EnableRetry retries transient failures with exponential backoff
	EnableRetry bool

	// InitialDelay is the first retry backoff (default: 50ms)
	InitialDelay time.Duration

	// Logger for resilience events
	Logger *slog.Logger
}

// DefaultResilientConfig returns defaults suited to a local network backend.
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		EnableCircuitBreaker: true,
		EnableRetry:          true,
		InitialDelay:         50 * time.Millisecond,
	}
}

// Resilient wraps a KV with retry and circuit breaking from fortify.
// ErrNotFound and context cancellation are never retried and never count as
// backend failures.
type Resilient struct {
	kv        KV
	name      string
	getCB     circuitbreaker.CircuitBreaker[[]byte]
	writeCB   circuitbreaker.CircuitBreaker[struct{}]
	getRetry  retry.Retry[[]byte]
	writeRetr retry.Retry[struct{}]
	logger    *slog.Logger
}

var _ KV = (*Resilient)(nil)

// NewResilient wraps kv. name identifies the backend in logs.
func NewResilient(kv KV, name string, cfg ResilientConfig) *Resilient {
	r := &Resilient{
		kv:     kv,
		name:   name,
		logger: cfg.Logger,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	if cfg.EnableCircuitBreaker {
		r.getCB = circuitbreaker.New[[]byte](breakerConfig(r))
		r.writeCB = circuitbreaker.New[struct{}](breakerConfig(r))
	}

	if cfg.EnableRetry {
		delay := cfg.InitialDelay
		if delay <= 0 {
			delay = 50 * time.Millisecond
		}
		r.getRetry = retry.New[[]byte](retryConfig(delay))
		r.writeRetr = retry.New[struct{}](retryConfig(delay))
	}

	return r
}

func breakerConfig(r *Resilient) circuitbreaker.Config {
	return circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			r.logger.Warn("storage circuit breaker state change",
				"backend", r.name,
				"from", from.String(),
				"to", to.String())
		},
	}
}

func retryConfig(delay time.Duration) retry.Config {
	return retry.Config{
		MaxAttempts:   3,
		InitialDelay:  delay,
		MaxDelay:      2 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryable,
	}
}

func isRetryable(err error) bool {
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrInvalidKey) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// Get reads key. A missing key passes through the breaker as a success so it
// cannot trip it.
func (r *Resilient) Get(ctx context.Context, key string) ([]byte, error) {
	var notFound bool
	operation := func(ctx context.Context) ([]byte, error) {
		v, err := r.kv.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			notFound = true
			return nil, nil
		}
		return v, err
	}

	v, err := run(ctx, r.getCB, r.getRetry, operation)
	if err != nil {
		return nil, err
	}
	if notFound {
		return nil, ErrNotFound
	}
	return v, nil
}

func (r *Resilient) Set(ctx context.Context, key string, value []byte) error {
	_, err := run(ctx, r.writeCB, r.writeRetr, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.kv.Set(ctx, key, value)
	})
	return err
}

func (r *Resilient) Delete(ctx context.Context, key string) error {
	_, err := run(ctx, r.writeCB, r.writeRetr, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.kv.Delete(ctx, key)
	})
	return err
}

// Close closes the wrapped KV when it supports it.
func (r *Resilient) Close() error {
	if c, ok := r.kv.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func run[T any](ctx context.Context, cb circuitbreaker.CircuitBreaker[T], rt retry.Retry[T], operation func(context.Context) (T, error)) (T, error) {
	switch {
	case cb != nil && rt != nil:
		return cb.Execute(ctx, func(ctx context.Context) (T, error) {
			return rt.Do(ctx, operation)
		})
	case cb != nil:
		return cb.Execute(ctx, operation)
	case rt != nil:
		return rt.Do(ctx, operation)
	default:
		return operation(ctx)
	}
}
