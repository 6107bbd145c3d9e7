package assets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-rpg/internal/storage"
)

type countingGenerator struct {
	calls   atomic.Int32
	uri     func(prompt string) string
	err     error
	started chan struct{}
	release chan struct{}
}

func (g *countingGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	if g.started != nil {
		select {
		case g.started <- struct{}{}:
		default:
		}
	}
	if g.release != nil {
		<-g.release
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.err != nil {
		return "", g.err
	}
	if g.uri != nil {
		return g.uri(prompt), nil
	}
	return "/generated/" + prompt + ".jpg", nil
}

func newTestCache(t *testing.T, gen Generator, opts ...CacheOpt) (*Cache, *storage.DiskStore) {
	t.Helper()

	store, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return NewCache(store, gen, opts...), store
}

func TestCache_GetAsset(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("jpeg bytes"))
	}))
	defer remote.Close()

	tests := map[string]struct {
		id         string
		prompt     string
		gen        *countingGenerator
		preexist   bool
		expURI     func(store *storage.DiskStore) string
		expCalls   int32
		expCached  int
		expContent string
	}{
		"disk hit skips generation": {
			id:        "character_1",
			prompt:    "a hero",
			gen:       &countingGenerator{},
			preexist:  true,
			expURI:    func(s *storage.DiskStore) string { return s.Path(storage.AssetTypeCharacter, "character_1") },
			expCalls:  0,
			expCached: 1,
		},
		"no prompt gives placeholder": {
			id:        "character_1",
			gen:       &countingGenerator{},
			expURI:    func(*storage.DiskStore) string { return PlaceholderURI },
			expCalls:  0,
			expCached: 0,
		},
		"local generation is cached as is": {
			id:        "character_1",
			prompt:    "hero",
			gen:       &countingGenerator{},
			expURI:    func(*storage.DiskStore) string { return "/generated/hero.jpg" },
			expCalls:  1,
			expCached: 1,
		},
		"generator error": {
			id:        "character_1",
			prompt:    "hero",
			gen:       &countingGenerator{err: errors.New("quota exceeded")},
			expURI:    func(*storage.DiskStore) string { return ErrorURI },
			expCalls:  1,
			expCached: 0,
		},
		"remote image downloaded": {
			id:         "character_1",
			prompt:     "hero",
			gen:        &countingGenerator{uri: func(string) string { return remote.URL + "/hero.jpg" }},
			expURI:     func(s *storage.DiskStore) string { return s.Path(storage.AssetTypeCharacter, "character_1") },
			expCalls:   1,
			expCached:  1,
			expContent: "jpeg bytes",
		},
		"remote non-200 gives placeholder": {
			id:        "character_1",
			prompt:    "hero",
			gen:       &countingGenerator{uri: func(string) string { return remote.URL + "/missing.jpg" }},
			expURI:    func(*storage.DiskStore) string { return PlaceholderURI },
			expCalls:  1,
			expCached: 0,
		},
		"invalid id": {
			id:        "../escape",
			prompt:    "hero",
			gen:       &countingGenerator{},
			expURI:    func(*storage.DiskStore) string { return ErrorURI },
			expCalls:  0,
			expCached: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c, store := newTestCache(t, tt.gen, WithHTTPClient(remote.Client()))

			if tt.preexist {
				_, err := store.Save(storage.AssetTypeCharacter, storage.Identifier(tt.id), strings.NewReader("cached"))
				if err != nil {
					t.Fatalf("seeding asset: %v", err)
				}
			}

			got := c.GetAsset(context.Background(), tt.id, storage.AssetTypeCharacter, tt.prompt)

			testutil.AssertEqual(t, "uri", got, tt.expURI(store))
			testutil.AssertEqual(t, "generator calls", tt.gen.calls.Load(), tt.expCalls)
			testutil.AssertEqual(t, "cached", c.Len(), tt.expCached)

			if tt.expContent != "" {
				data, err := os.ReadFile(got)
				if err != nil {
					t.Fatalf("reading downloaded asset: %v", err)
				}
				testutil.AssertEqual(t, "content", string(data), tt.expContent)
			}
		})
	}
}

func TestCache_GetAsset_MemoryHit(t *testing.T) {
	gen := &countingGenerator{}
	c, _ := newTestCache(t, gen)
	ctx := context.Background()

	first := c.GetAsset(ctx, "scene_1", storage.AssetTypeScene, "cave")
	second := c.GetAsset(ctx, "scene_1", storage.AssetTypeScene, "cave")
	third := c.GetAsset(ctx, "scene_1", storage.AssetTypeScene, "")

	testutil.AssertEqual(t, "second", second, first)
	testutil.AssertEqual(t, "third", third, first)
	testutil.AssertEqual(t, "generator calls", gen.calls.Load(), int32(1))
}

func TestCache_GetAsset_KeyedByType(t *testing.T) {
	gen := &countingGenerator{}
	c, _ := newTestCache(t, gen)
	ctx := context.Background()

	c.GetAsset(ctx, "1", storage.AssetTypeCharacter, "hero")
	c.GetAsset(ctx, "1", storage.AssetTypeEnemy, "orc")

	testutil.AssertEqual(t, "generator calls", gen.calls.Load(), int32(2))
	testutil.AssertEqual(t, "cached", c.Len(), 2)
}

func TestCache_GetAsset_Coalesces(t *testing.T) {
	gen := &countingGenerator{started: make(chan struct{}, 1), release: make(chan struct{})}
	c, _ := newTestCache(t, gen)

	const callers = 10
	results := make([]string, callers)

	var wg sync.WaitGroup
	get := func(i int) {
		defer wg.Done()
		results[i] = c.GetAsset(context.Background(), "scene_1", storage.AssetTypeScene, "cave")
	}

	wg.Add(1)
	go get(0)
	<-gen.started

	var waiting sync.WaitGroup
	for i := 1; i < callers; i++ {
		wg.Add(1)
		waiting.Add(1)
		go func() {
			waiting.Done()
			get(i)
		}()
	}
	waiting.Wait()

	// Give the other callers time to reach the generator if they were not coalesced.
	time.Sleep(50 * time.Millisecond)
	testutil.AssertEqual(t, "generator calls while blocked", gen.calls.Load(), int32(1))

	close(gen.release)
	wg.Wait()

	testutil.AssertEqual(t, "generator calls", gen.calls.Load(), int32(1))
	for i, r := range results {
		if r != "/generated/cave.jpg" {
			t.Errorf("caller %d got %q", i, r)
		}
	}
}

func TestCache_GetAsset_CancelledCallerDoesNotFailOthers(t *testing.T) {
	gen := &countingGenerator{started: make(chan struct{}, 1), release: make(chan struct{})}
	c, _ := newTestCache(t, gen)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan string, 1)
	go func() {
		first <- c.GetAsset(ctx, "scene_1", storage.AssetTypeScene, "cave")
	}()
	<-gen.started

	second := make(chan string, 1)
	go func() {
		second <- c.GetAsset(context.Background(), "scene_1", storage.AssetTypeScene, "cave")
	}()

	cancel()
	testutil.AssertEqual(t, "cancelled caller", <-first, ErrorURI)

	close(gen.release)
	testutil.AssertEqual(t, "waiting caller", <-second, "/generated/cave.jpg")
	testutil.AssertEqual(t, "generator calls", gen.calls.Load(), int32(1))
	testutil.AssertEqual(t, "cached", c.Len(), 1)
}

func TestCache_GetAsset_ResolveTimeout(t *testing.T) {
	gen := &slowGenerator{}
	c, _ := newTestCache(t, gen, WithResolveTimeout(10*time.Millisecond))

	got := c.GetAsset(context.Background(), "scene_1", storage.AssetTypeScene, "cave")

	testutil.AssertEqual(t, "uri", got, ErrorURI)
	testutil.AssertEqual(t, "cached", c.Len(), 0)
}

// slowGenerator blocks until its context ends.
type slowGenerator struct{}

func (slowGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestCache_ClearCache(t *testing.T) {
	gen := &countingGenerator{}
	c, store := newTestCache(t, gen)
	ctx := context.Background()

	_, err := store.Save(storage.AssetTypeItem, "potion", strings.NewReader("potion"))
	if err != nil {
		t.Fatalf("seeding asset: %v", err)
	}

	c.GetAsset(ctx, "scene_1", storage.AssetTypeScene, "cave")
	testutil.AssertEqual(t, "cached before", c.Len(), 1)

	err = c.ClearCache(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "cached after", c.Len(), 0)

	found, err := store.Exists(storage.AssetTypeItem, "potion")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "disk asset removed", found, false)

	for _, at := range storage.AssetTypes {
		_, err := os.Stat(filepath.Dir(store.Path(at, "x")))
		if err != nil {
			t.Errorf("expected %s directory to be recreated: %v", at, err)
		}
	}

	c.GetAsset(ctx, "scene_1", storage.AssetTypeScene, "cave")
	testutil.AssertEqual(t, "regenerated", gen.calls.Load(), int32(2))

	err = c.ClearCache(ctx)
	if err != nil {
		t.Fatalf("second clear: %v", err)
	}
	err = c.ClearCache(ctx)
	if err != nil {
		t.Fatalf("clear on empty cache: %v", err)
	}
}

func TestCache_Preload(t *testing.T) {
	gen := &countingGenerator{}
	c, _ := newTestCache(t, gen)

	reqs := []Request{
		{ID: "character_1", Type: storage.AssetTypeCharacter, Prompt: "hero"},
		{ID: "enemy_1", Type: storage.AssetTypeEnemy, Prompt: "orc"},
		{ID: "enemy_2", Type: storage.AssetTypeEnemy},
		{ID: "scene_1", Type: storage.AssetTypeScene, Prompt: "cave"},
		{ID: "enemy_1", Type: storage.AssetTypeEnemy, Prompt: "orc"},
	}

	uris := c.Preload(context.Background(), reqs)

	testutil.AssertEqual(t, "count", len(uris), len(reqs))
	testutil.AssertEqual(t, "hero", uris[0], "/generated/hero.jpg")
	testutil.AssertEqual(t, "orc", uris[1], "/generated/orc.jpg")
	testutil.AssertEqual(t, "no prompt", uris[2], PlaceholderURI)
	testutil.AssertEqual(t, "cave", uris[3], "/generated/cave.jpg")
	testutil.AssertEqual(t, "repeat", uris[4], "/generated/orc.jpg")
	testutil.AssertEqual(t, "cached", c.Len(), 3)
}

func TestAssetID(t *testing.T) {
	a := AssetID(storage.AssetTypeScene, "A dark cave")
	b := AssetID(storage.AssetTypeScene, "A dark cave")
	other := AssetID(storage.AssetTypeEnemy, "A dark cave")

	testutil.AssertEqual(t, "deterministic", a, b)
	testutil.AssertEqual(t, "matches hash", a, storage.HashID("scene", "A dark cave").String())
	if a == other {
		t.Errorf("expected type to change the id, both were %q", a)
	}
	if err := storage.Identifier(a).Validate(); err != nil {
		t.Errorf("id %q is not a valid identifier: %v", a, err)
	}
}
