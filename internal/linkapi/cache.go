package linkapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	core "github.com/signalsfoundry/linkplanner/core"
	"github.com/signalsfoundry/linkplanner/internal/observability"
)

const (
	DefaultCacheSize = 1024
	DefaultCacheTTL  = 10 * time.Minute
)

// ResultCache memoises analyses by a digest of their inputs. Entries expire
// after the TTL. A nil *ResultCache is a valid, always-missing cache.
//
// Cached analyses are shared between callers and must not be modified.
type ResultCache struct {
	lru     *expirable.LRU[string, *core.LinkAnalysis]
	metrics *observability.EngineCollector

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewResultCache creates a cache holding up to size analyses. size <= 0
// disables caching and returns nil; ttl <= 0 uses DefaultCacheTTL.
func NewResultCache(size int, ttl time.Duration, metrics *observability.EngineCollector) *ResultCache {
	if size <= 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResultCache{
		lru:     expirable.NewLRU[string, *core.LinkAnalysis](size, nil, ttl),
		metrics: metrics,
	}
}

func (c *ResultCache) Get(key string) (*core.LinkAnalysis, bool) {
	if c == nil || key == "" {
		return nil, false
	}
	a, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	c.metrics.ObserveCacheLookup(ok)
	c.metrics.SetCacheHitRatio(c.HitRatio())
	return a, ok
}

func (c *ResultCache) Add(key string, a *core.LinkAnalysis) {
	if c == nil || key == "" || a == nil {
		return
	}
	c.lru.Add(key, a)
}

func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func (c *ResultCache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

// Stats returns the hit and miss counts since creation.
func (c *ResultCache) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

// HitRatio returns hits / (hits + misses), or 0 before any lookup.
func (c *ResultCache) HitRatio() float64 {
	hits, misses := c.Stats()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// cacheKey digests the inputs of an analysis. Inputs that fail to encode
// (NaN coordinates) yield "" and bypass the cache.
func cacheKey(kind string, parts ...any) string {
	h := sha256.New()
	h.Write([]byte(kind))
	enc := json.NewEncoder(h)
	for _, p := range parts {
		if err := enc.Encode(p); err != nil {
			return ""
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
