package db

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// RetryPolicy bounds the connection attempts made by OpenWithRetry.
type RetryPolicy struct {
	// Attempts is the total number of tries, the first included. 1 disables retry.
	Attempts int
	// Backoff is the delay before the second attempt. It doubles per attempt.
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// DefaultRetryPolicy covers a database that is still starting alongside the
// service.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, Backoff: 500 * time.Millisecond, MaxBackoff: 10 * time.Second}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.Attempts <= 0 {
		p.Attempts = def.Attempts
	}
	if p.Backoff <= 0 {
		p.Backoff = def.Backoff
	}
	if p.MaxBackoff < p.Backoff {
		p.MaxBackoff = max(def.MaxBackoff, p.Backoff)
	}
	return p
}

// OpenWithRetry is Open retried with exponential backoff while the failure
// looks like the server is unreachable or still starting. Configuration and
// authentication errors fail immediately.
func OpenWithRetry(ctx context.Context, connString string, poolCfg PoolConfig, policy RetryPolicy) (*pgxpool.Pool, error) {
	return retry(ctx, policy, func(ctx context.Context) (*pgxpool.Pool, error) {
		return Open(ctx, connString, poolCfg)
	})
}

func retry[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	policy = policy.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsTransientConnect(err) || attempt == policy.Attempts-1 {
			break
		}

		delay := backoff(attempt, policy)
		zap.L().Warn("db: connect failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// backoff returns the delay after the given zero-based attempt, with ±25%
// jitter, capped at MaxBackoff.
func backoff(attempt int, policy RetryPolicy) time.Duration {
	d := float64(policy.Backoff) * math.Pow(2, float64(attempt))
	d += d * 0.25 * (rand.Float64()*2 - 1)
	if d > float64(policy.MaxBackoff) {
		d = float64(policy.MaxBackoff)
	}
	return time.Duration(d)
}

// IsTransientConnect reports whether a connect failure is worth retrying: the
// server refused or dropped the connection, or answered that it cannot accept
// connections yet.
func IsTransientConnect(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// cannot_connect_now and too_many_connections
		return pgErr.Code == "57P03" || pgErr.Code == "53300"
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}
