package assets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pixil98/go-rpg/internal/storage"
)

const (
	// PlaceholderURI is returned when no image could be produced yet.
	PlaceholderURI = "https://placehold.co/400x400/1a1a1a/ffffff?text=Loading..."

	// ErrorURI is returned when resolving an asset failed.
	ErrorURI = "https://placehold.co/400x400/1a1a1a/ff0000?text=Error+Loading+Image"

	DefaultResolveTimeout = 2 * time.Minute
)

// Generator produces an image for a prompt and returns where it can be found:
// either a local file path or an http(s) URL.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Cache resolves asset ids to image URIs, checking memory, then disk, then the
// generator. A URI held in memory is never looked up again until ClearCache.
type Cache struct {
	store      *storage.DiskStore
	gen        Generator
	httpClient *http.Client

	mu      sync.RWMutex
	entries map[string]string
	epoch   uint64

	flights        singleflight.Group
	resolveTimeout time.Duration
}

type CacheOpt func(*Cache)

// WithHTTPClient sets the client used to download remote images.
func WithHTTPClient(c *http.Client) CacheOpt {
	return func(ca *Cache) {
		ca.httpClient = c
	}
}

// WithResolveTimeout bounds how long one disk check, generation and download may take.
func WithResolveTimeout(d time.Duration) CacheOpt {
	return func(ca *Cache) {
		ca.resolveTimeout = d
	}
}

func NewCache(store *storage.DiskStore, gen Generator, opts ...CacheOpt) *Cache {
	c := &Cache{
		store:          store,
		gen:            gen,
		httpClient:     http.DefaultClient,
		resolveTimeout: DefaultResolveTimeout,
		entries:        map[string]string{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func cacheKey(t storage.AssetType, id string) string {
	return t.String() + "_" + id
}

// GetAsset returns a URI for the asset. It never fails: when nothing usable
// can be produced it returns PlaceholderURI, and on error ErrorURI.
// Concurrent misses for the same asset share a single generation.
func (c *Cache) GetAsset(ctx context.Context, assetID string, t storage.AssetType, prompt string) string {
	key := cacheKey(t, assetID)

	c.mu.RLock()
	uri, ok := c.entries[key]
	epoch := c.epoch
	c.mu.RUnlock()
	if ok {
		return uri
	}

	// Flights are shared between callers, so one runs detached from ctx under
	// its own deadline while each caller waits only as long as its ctx allows.
	ch := c.flights.DoChan(fmt.Sprintf("%d/%s", epoch, key), func() (any, error) {
		// An earlier flight may have finished between the lookup above and now.
		if uri, ok := c.lookup(key, epoch); ok {
			return uri, nil
		}

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.resolveTimeout)
		defer cancel()

		uri, cacheable, err := c.resolve(fctx, storage.Identifier(assetID), t, prompt)
		if err != nil {
			slog.ErrorContext(fctx, "error getting asset", "type", t, "id", assetID, "error", err)
			return ErrorURI, nil
		}
		if cacheable {
			c.remember(key, uri, epoch)
		}
		return uri, nil
	})

	select {
	case res := <-ch:
		return res.Val.(string)
	case <-ctx.Done():
		slog.WarnContext(ctx, "stopped waiting for asset", "type", t, "id", assetID, "error", ctx.Err())
		return ErrorURI
	}
}

func (c *Cache) resolve(ctx context.Context, id storage.Identifier, t storage.AssetType, prompt string) (string, bool, error) {
	found, err := c.store.Exists(t, id)
	if err != nil {
		return "", false, err
	}
	if found {
		slog.DebugContext(ctx, "loading asset from disk", "type", t, "id", id)
		return c.store.Path(t, id), true, nil
	}

	if prompt == "" {
		return PlaceholderURI, false, nil
	}

	slog.InfoContext(ctx, "generating asset", "type", t, "id", id)
	uri, err := c.gen.GenerateImage(ctx, prompt)
	if err != nil {
		return "", false, fmt.Errorf("generating image: %w", err)
	}

	if !isRemote(uri) {
		return uri, true, nil
	}

	path, ok, err := c.download(ctx, uri, t, id)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return PlaceholderURI, false, nil
	}
	return path, true, nil
}

// download fetches a remote image into the asset's deterministic path. A
// response other than 200 is not an error, it just leaves nothing to cache.
func (c *Cache) download(ctx context.Context, uri string, t storage.AssetType, id storage.Identifier) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", false, fmt.Errorf("building download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("downloading %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.WarnContext(ctx, "asset download returned non-200", "url", uri, "status", resp.StatusCode)
		return "", false, nil
	}

	path, err := c.store.Save(t, id, resp.Body)
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

func (c *Cache) lookup(key string, epoch uint64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.epoch != epoch {
		return "", false
	}
	uri, ok := c.entries[key]
	return uri, ok
}

// remember records uri unless the cache was cleared since the lookup began.
func (c *Cache) remember(key, uri string, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return
	}
	c.entries[key] = uri
}

// ClearCache forgets every remembered URI and deletes every asset on disk.
// Clearing an already empty cache is fine.
func (c *Cache) ClearCache(ctx context.Context) error {
	c.mu.Lock()
	c.entries = map[string]string{}
	c.epoch++
	c.mu.Unlock()

	err := c.store.Reset()
	if err != nil {
		return fmt.Errorf("clearing asset cache: %w", err)
	}

	slog.InfoContext(ctx, "asset cache cleared")
	return nil
}

// Len returns the number of URIs held in memory.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func isRemote(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

// AssetID derives a stable id for an asset from its type and prompt.
func AssetID(t storage.AssetType, prompt string) string {
	return storage.HashID(t.String(), prompt).String()
}
