package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shopfloor/internal/audit"
	"github.com/sells-group/shopfloor/internal/config"
	"github.com/sells-group/shopfloor/internal/db"
	"github.com/sells-group/shopfloor/internal/lookup"
)

func retryPolicy(c config.StoreConfig) db.RetryPolicy {
	return db.RetryPolicy{
		Attempts: c.ConnectAttempts,
		Backoff:  time.Duration(c.ConnectBackoffMs) * time.Millisecond,
	}
}

func openRecordStore(ctx context.Context, c config.StoreConfig) (*pgxpool.Pool, error) {
	pool, err := db.OpenWithRetry(ctx, c.DatabaseURL, db.PoolConfig{
		MaxConns: c.MaxConns,
		MinConns: c.MinConns,
	}, retryPolicy(c))
	if err != nil {
		return nil, eris.Wrap(err, "open record store")
	}
	return pool, nil
}

func lookupOptions(c config.LookupConfig) lookup.Options {
	return lookup.Options{
		QueryTimeout:     c.QueryTimeout(),
		DefaultLimit:     c.DefaultLimit,
		MaxLimit:         c.MaxLimit,
		ImageConcurrency: c.ImageConcurrency,
		ExcludedPrefixes: c.ExcludedPrefixes,
	}
}

// initEngine opens the record store and builds a lookup engine over it. The
// caller closes the returned pool.
func initEngine(ctx context.Context) (*lookup.Engine, *pgxpool.Pool, error) {
	pool, err := openRecordStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	return lookup.NewEngine(pool, lookupOptions(cfg.Lookup)), pool, nil
}

// openAudit returns the audit store selected by c, or nil when the trail is
// off. shared is the record store pool, reused by the postgres driver when no
// separate URL is configured.
func openAudit(ctx context.Context, c config.AuditConfig, shared db.Pool, policy db.RetryPolicy) (audit.Store, error) {
	switch c.Driver {
	case "", "off":
		return nil, nil
	case "sqlite":
		st, err := audit.NewSQLite(c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		if c.DatabaseURL == "" {
			if shared == nil {
				return nil, eris.New("audit: postgres driver needs audit.database_url or a record store pool")
			}
			return audit.NewPostgres(shared, nil), nil
		}
		pool, err := db.OpenWithRetry(ctx, c.DatabaseURL, db.PoolConfig{MaxConns: 2, MinConns: 1}, policy)
		if err != nil {
			return nil, eris.Wrap(err, "open audit store")
		}
		return audit.NewPostgres(pool, pool.Close), nil
	default:
		return nil, eris.Errorf("audit: unsupported driver %q", c.Driver)
	}
}

// initAudit opens and migrates the audit store. A nil store means the trail
// is off.
func initAudit(ctx context.Context, shared db.Pool) (audit.Store, error) {
	st, err := openAudit(ctx, cfg.Audit, shared, retryPolicy(cfg.Store))
	if err != nil || st == nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate audit store")
	}
	zap.L().Info("audit trail enabled", zap.String("driver", cfg.Audit.Driver))
	return st, nil
}
