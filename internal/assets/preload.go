package assets

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pixil98/go-rpg/internal/storage"
)

const DefaultPreloadConcurrency = 4

// Request names one asset to resolve.
type Request struct {
	ID     string
	Type   storage.AssetType
	Prompt string
}

// Preload resolves every request concurrently and returns the URIs in request order.
func (c *Cache) Preload(ctx context.Context, reqs []Request) []string {
	uris := make([]string, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultPreloadConcurrency)

	for i, r := range reqs {
		g.Go(func() error {
			uris[i] = c.GetAsset(gctx, r.ID, r.Type, r.Prompt)
			return nil
		})
	}

	// GetAsset never fails, so neither does the group.
	_ = g.Wait()
	return uris
}
