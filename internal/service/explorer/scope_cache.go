package explorer

import (
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
	"folio/internal/metrics"
)

// Cache result labels
const (
	cacheHit        = "hit"
	cacheMiss       = "miss"
	cacheInvalidate = "invalidate"
)

var allOrderings = []models.Ordering{
	{Key: models.SortByName, Direction: models.SortAsc},
	{Key: models.SortByName, Direction: models.SortDesc},
	{Key: models.SortByCreatedAt, Direction: models.SortAsc},
	{Key: models.SortByCreatedAt, Direction: models.SortDesc},
}

type cachedChildren struct {
	generation uint64
	children   *explorerSvc.Children
}

// ScopeCache memoizes resolved listings per (scope, ordering).
//
// Every scope has a generation counter that Invalidate bumps. A fill
// records the generation it started under and is dropped if the scope was
// invalidated meanwhile, so a slow lookup never resurrects stale rows.
type ScopeCache struct {
	cache   *ristretto.Cache[string, cachedChildren]
	ttl     time.Duration
	metrics *metrics.Explorer

	mu          sync.Mutex
	generations map[string]uint64
}

// NewScopeCache creates a cache whose entries expire after ttl.
// A ttl of zero or less returns a disabled cache.
func NewScopeCache(ttl time.Duration, m *metrics.Explorer) (*ScopeCache, error) {
	c := &ScopeCache{
		ttl:         ttl,
		metrics:     m,
		generations: make(map[string]uint64),
	}
	if ttl <= 0 {
		return c, nil
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, cachedChildren]{
		NumCounters: 100_000,
		MaxCost:     10_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	c.cache = cache
	return c, nil
}

func cacheKey(scope models.Scope, ordering models.Ordering) string {
	return scope.Key() + "|" + ordering.String()
}

// Generation returns the current generation of scope. Read it before
// starting a lookup and pass it to Set.
func (c *ScopeCache) Generation(scope models.Scope) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[scope.Key()]
}

// Get returns a copy of the cached listing.
func (c *ScopeCache) Get(scope models.Scope, ordering models.Ordering) (*explorerSvc.Children, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}

	entry, ok := c.cache.Get(cacheKey(scope, ordering))
	if !ok || entry.generation != c.Generation(scope) {
		c.metrics.RecordCache(cacheMiss)
		return nil, false
	}

	c.metrics.RecordCache(cacheHit)
	return &explorerSvc.Children{
		Scope:   entry.children.Scope,
		Folders: slices.Clone(entry.children.Folders),
		Files:   slices.Clone(entry.children.Files),
	}, true
}

// Set stores children if scope is still at generation.
func (c *ScopeCache) Set(scope models.Scope, ordering models.Ordering, generation uint64, children *explorerSvc.Children) {
	if c == nil || c.cache == nil {
		return
	}

	c.mu.Lock()
	current := c.generations[scope.Key()]
	c.mu.Unlock()
	if current != generation {
		return
	}

	cost := int64(1 + len(children.Folders) + len(children.Files))
	c.cache.SetWithTTL(cacheKey(scope, ordering), cachedChildren{generation: generation, children: children}, cost, c.ttl)
	c.cache.Wait()
}

// Invalidate drops every cached ordering of the given scopes.
func (c *ScopeCache) Invalidate(scopes ...models.Scope) {
	if c == nil {
		return
	}

	c.mu.Lock()
	for _, scope := range scopes {
		c.generations[scope.Key()]++
	}
	c.mu.Unlock()

	if c.cache == nil {
		return
	}
	for _, scope := range scopes {
		for _, o := range allOrderings {
			c.cache.Del(cacheKey(scope, o))
		}
		c.metrics.RecordCache(cacheInvalidate)
	}
}

// Close releases the cache goroutines.
func (c *ScopeCache) Close() {
	if c != nil && c.cache != nil {
		c.cache.Close()
	}
}
