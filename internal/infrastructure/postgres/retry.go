package postgres

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy reintentos de una transacción completa ante conflictos concurrentes.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	// OnRetry se invoca antes de cada espera; puede ser nil.
	OnRetry func(err error, wait time.Duration)
}

// WithRetry ejecuta op hasta MaxAttempts veces mientras el error sea reintentable
// (ver IsRetryable). Cualquier otro error se devuelve de inmediato.
func WithRetry(ctx context.Context, p RetryPolicy, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	b.MaxInterval = 2 * time.Second

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(attempts)),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(p.OnRetry))
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := op(); err != nil {
			if IsRetryable(err) {
				return struct{}{}, err
			}
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, nil
	}, opts...)
	return err
}
