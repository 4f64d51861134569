// Package lookup implements the code search and parts-list queries over the
// historical production tables.
package lookup

import (
	"context"
	"time"

	"github.com/sells-group/shopfloor/internal/db"
)

// Options tunes an Engine. Zero values take the defaults from DefaultOptions.
type Options struct {
	QueryTimeout     time.Duration
	DefaultLimit     int
	MaxLimit         int
	ImageConcurrency int
	ExcludedPrefixes []string
	// Images resolves product images. Nil uses the product catalog tables.
	Images ImageResolver
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		QueryTimeout:     8 * time.Second,
		DefaultLimit:     DefaultLimit,
		MaxLimit:         MaxLimit,
		ImageConcurrency: 4,
		ExcludedPrefixes: ExcludedItemPrefixes,
	}
}

// Engine runs lookups against the record store. It holds no per-request state
// and is safe for concurrent use.
type Engine struct {
	pool            db.Pool
	opts            Options
	searchSQL       string
	excludePatterns []string
}

// NewEngine creates an Engine over pool.
func NewEngine(pool db.Pool, opts Options) *Engine {
	def := DefaultOptions()
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = def.QueryTimeout
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = def.MaxLimit
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = def.DefaultLimit
	}
	if opts.ImageConcurrency <= 0 {
		opts.ImageConcurrency = def.ImageConcurrency
	}
	if opts.ExcludedPrefixes == nil {
		opts.ExcludedPrefixes = def.ExcludedPrefixes
	}
	if opts.Images == nil {
		opts.Images = NewCatalogImages(pool, opts.QueryTimeout)
	}

	return &Engine{
		pool:            pool,
		opts:            opts,
		searchSQL:       buildSearchSQL(SearchSources),
		excludePatterns: prefixPatterns(opts.ExcludedPrefixes),
	}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Ping checks that the record store answers a trivial query.
func (e *Engine) Ping(ctx context.Context) error {
	qctx, cancel := db.WithTimeout(ctx, e.opts.QueryTimeout)
	defer cancel()

	if _, err := e.pool.Exec(qctx, "SELECT 1"); err != nil {
		return storeFailure("ping", err, "lookup: ping store")
	}
	return nil
}
