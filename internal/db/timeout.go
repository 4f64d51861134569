package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// WithTimeout bounds a single outbound query. A non-positive d only derives a
// cancelable context from ctx.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// IsTimeout reports whether err (or any error in its chain) was caused by a query
// deadline, either the context's or one reported by the pgx connection.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return pgconn.Timeout(err)
}

// IsCanceled reports whether err was caused by the caller canceling the request.
func IsCanceled(err error) bool {
	return err != nil && errors.Is(err, context.Canceled)
}
