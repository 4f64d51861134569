package lookup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/shopfloor/internal/db"
	"github.com/sells-group/shopfloor/internal/model"
)

// ImageResolver finds the representative image URL of a model/product
// reference. It returns "" when the reference has no image.
type ImageResolver interface {
	ResolveImage(ctx context.Context, modelRef string) (string, error)
}

// CatalogImages resolves images from the product catalog tables.
type CatalogImages struct {
	pool    db.Pool
	timeout time.Duration
}

// NewCatalogImages creates a CatalogImages over pool.
func NewCatalogImages(pool db.Pool, timeout time.Duration) *CatalogImages {
	return &CatalogImages{pool: pool, timeout: timeout}
}

// imageSQL picks the image with the lowest sort key, URL as tie-break.
var imageSQL = `
SELECT ` + db.TrimmedText("i.url_imagem") + ` AS url
  FROM ` + db.QuoteTable(productTable) + ` p
  JOIN ` + db.QuoteTable(productImageTable) + ` i ON i.id_produto = p.id_produto
 WHERE ` + db.TrimmedText("p.codigo") + ` = $1
   AND ` + db.TrimmedText("i.url_imagem") + ` IS NOT NULL
 ORDER BY i.ordem NULLS LAST, url
 LIMIT 1`

// ResolveImage implements ImageResolver.
func (c *CatalogImages) ResolveImage(ctx context.Context, modelRef string) (string, error) {
	qctx, cancel := db.WithTimeout(ctx, c.timeout)
	defer cancel()

	var url *string
	err := c.pool.QueryRow(qctx, imageSQL, modelRef).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "lookup: resolve image for %s", modelRef)
	}
	if url = TrimToNil(url); url == nil {
		return "", nil
	}
	return *url, nil
}

// attachImages resolves each distinct model reference once, concurrently, and
// sets ImageURL on the matching rows. Lookup failures only drop the image.
func (e *Engine) attachImages(ctx context.Context, matches []model.SearchMatch) {
	var refs []string
	seen := make(map[string]bool)
	for _, m := range matches {
		ref := TrimToNil(m.ModelRef())
		if ref == nil || seen[*ref] {
			continue
		}
		seen[*ref] = true
		refs = append(refs, *ref)
	}
	if len(refs) == 0 {
		return
	}

	var mu sync.Mutex
	resolved := make(map[string]string, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.ImageConcurrency)
	for _, ref := range refs {
		g.Go(func() error {
			url, err := e.opts.Images.ResolveImage(gctx, ref)
			if err != nil {
				zap.L().Warn("lookup: image lookup failed",
					zap.String("model", ref),
					zap.Error(err),
				)
				return nil // the row is returned without an image
			}
			if url == "" {
				return nil
			}
			mu.Lock()
			resolved[ref] = url
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i := range matches {
		ref := TrimToNil(matches[i].ModelRef())
		if ref == nil {
			continue
		}
		if url, ok := resolved[*ref]; ok {
			matches[i].ImageURL = &url
		}
	}
}
