package lib

import (
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ReassemblyCache keeps reassembled buffers in memory for a fixed TTL, keyed
// by manifest path.
//
// Entries are evicted lazily: an expired entry is replaced by the next Get
// for its key. There is no capacity bound. Because the key is the manifest
// path rather than a content digest, chunk files replaced on disk are only
// picked up once the cached entry expires or is invalidated.
type ReassemblyCache struct {
	reassembler Reassembler
	ttl         time.Duration
	now         func() time.Time
	logger      *zap.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry

	// group collapses concurrent misses for one manifest into one reassembly.
	group singleflight.Group
}

type cacheEntry struct {
	buffer    []byte
	timestamp time.Time
}

// CacheOption configures a ReassemblyCache.
type CacheOption func(*ReassemblyCache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *ReassemblyCache) { c.now = now }
}

// WithLogger sets the logger used for hit/miss reporting.
func WithLogger(logger *zap.Logger) CacheOption {
	return func(c *ReassemblyCache) { c.logger = logger }
}

// NewReassemblyCache creates a cache in front of r. A non-positive ttl
// selects DefaultCacheTTL.
func NewReassemblyCache(r Reassembler, ttl time.Duration, opts ...CacheOption) *ReassemblyCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &ReassemblyCache{
		reassembler: r,
		ttl:         ttl,
		now:         time.Now,
		logger:      zap.NewNop(),
		entries:     make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the reassembled content for manifestPath, reassembling it when
// no entry younger than the TTL exists. Failed reassemblies are never cached.
func (c *ReassemblyCache) Get(manifestPath string) ([]byte, error) {
	if buffer, ok := c.lookup(manifestPath); ok {
		c.logger.Debug("cache hit", zap.String("manifest", filepath.Base(manifestPath)))
		return buffer, nil
	}

	v, err, _ := c.group.Do(manifestPath, func() (interface{}, error) {
		// A flight that finished just before this one may have filled the entry.
		if buffer, ok := c.lookup(manifestPath); ok {
			return buffer, nil
		}

		c.logger.Info("cache miss, reassembling chunks", zap.String("manifest", filepath.Base(manifestPath)))
		buffer, err := c.reassembler.Reassemble(manifestPath)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			if entry, ok := c.entries[manifestPath]; ok && !c.fresh(entry) {
				delete(c.entries, manifestPath)
			}
			return nil, err
		}
		c.entries[manifestPath] = cacheEntry{buffer: buffer, timestamp: c.now()}
		return buffer, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate drops the entry for manifestPath, if any.
func (c *ReassemblyCache) Invalidate(manifestPath string) {
	c.mu.Lock()
	delete(c.entries, manifestPath)
	c.mu.Unlock()
}

func (c *ReassemblyCache) lookup(manifestPath string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[manifestPath]
	if !ok || !c.fresh(entry) {
		return nil, false
	}
	return entry.buffer, true
}

func (c *ReassemblyCache) fresh(entry cacheEntry) bool {
	return c.now().Sub(entry.timestamp) < c.ttl
}
