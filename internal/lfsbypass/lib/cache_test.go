package lib

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingReassembler counts calls and delegates to next.
type countingReassembler struct {
	calls atomic.Int64
	next  Reassembler
}

func (r *countingReassembler) Reassemble(manifestPath string) ([]byte, error) {
	r.calls.Add(1)
	return r.next.Reassemble(manifestPath)
}

type reassembleFunc func(string) ([]byte, error)

func (f reassembleFunc) Reassemble(manifestPath string) ([]byte, error) { return f(manifestPath) }

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestCacheHitWithinTTL(t *testing.T) {
	content, chunksDir, manifest := splitFixture(t, "game.data", 64, 16)
	manifestPath := ManifestPath(chunksDir, "game.data")

	counter := &countingReassembler{next: FileReassembler{}}
	clock := newFakeClock()
	cache := NewReassemblyCache(counter, time.Minute, WithClock(clock.Now))

	first, err := cache.Get(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, content, first)

	// Chunks and manifest disappear: a hit must not touch them.
	for _, c := range manifest.Chunks {
		require.NoError(t, os.Remove(filepath.Join(chunksDir, c.Path)))
	}
	require.NoError(t, os.Remove(manifestPath))

	clock.Advance(59 * time.Second)
	second, err := cache.Get(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), counter.calls.Load())
}

func TestCacheExpiry(t *testing.T) {
	_, chunksDir, _ := splitFixture(t, "game.data", 64, 16)
	manifestPath := ManifestPath(chunksDir, "game.data")

	counter := &countingReassembler{next: FileReassembler{}}
	clock := newFakeClock()
	cache := NewReassemblyCache(counter, time.Minute, WithClock(clock.Now))

	_, err := cache.Get(manifestPath)
	require.NoError(t, err)

	// An entry exactly TTL old is stale.
	clock.Advance(time.Minute)
	_, err = cache.Get(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counter.calls.Load())

	// The refreshed entry starts a new TTL window.
	clock.Advance(30 * time.Second)
	_, err = cache.Get(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counter.calls.Load())
}

func TestCacheServesStaleContentUntilExpiry(t *testing.T) {
	content, chunksDir, _ := splitFixture(t, "game.data", 32, 16)
	manifestPath := ManifestPath(chunksDir, "game.data")
	filePath := setupTestFile(t, "game.data", patternedContent(48))

	clock := newFakeClock()
	cache := NewReassemblyCache(FileReassembler{}, time.Minute, WithClock(clock.Now))

	first, err := cache.Get(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, content, first)

	// Re-split in place: the cache is keyed by path, not content.
	_, err = NewSplitter(16).Split(filePath, chunksDir)
	require.NoError(t, err)

	stale, err := cache.Get(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, content, stale)

	clock.Advance(time.Minute)
	fresh, err := cache.Get(manifestPath)
	require.NoError(t, err)
	assert.Len(t, fresh, 48)
}

func TestCacheInvalidate(t *testing.T) {
	_, chunksDir, _ := splitFixture(t, "game.data", 20, 16)
	manifestPath := ManifestPath(chunksDir, "game.data")

	counter := &countingReassembler{next: FileReassembler{}}
	cache := NewReassemblyCache(counter, time.Hour)

	_, err := cache.Get(manifestPath)
	require.NoError(t, err)
	cache.Invalidate(manifestPath)
	_, err = cache.Get(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counter.calls.Load())

	// Invalidating an unknown key is a no-op.
	cache.Invalidate("unknown")
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	boom := errors.New("boom")
	fail := true
	var calls int
	r := reassembleFunc(func(string) ([]byte, error) {
		calls++
		if fail {
			return nil, boom
		}
		return []byte("ok"), nil
	})
	cache := NewReassemblyCache(r, time.Hour)

	_, err := cache.Get("m")
	assert.ErrorIs(t, err, boom)
	_, err = cache.Get("m")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)

	fail = false
	buf, err := cache.Get("m")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), buf)
}

func TestCacheIntegrityFailureAfterExpiry(t *testing.T) {
	_, chunksDir, manifest := splitFixture(t, "game.data", 32, 16)
	manifestPath := ManifestPath(chunksDir, "game.data")

	clock := newFakeClock()
	cache := NewReassemblyCache(FileReassembler{}, time.Minute, WithClock(clock.Now))
	_, err := cache.Get(manifestPath)
	require.NoError(t, err)

	chunkPath := filepath.Join(chunksDir, manifest.Chunks[0].Path)
	data, err := os.ReadFile(chunkPath)
	require.NoError(t, err)
	data[0] ^= 0x01
	require.NoError(t, os.WriteFile(chunkPath, data, 0644))

	clock.Advance(2 * time.Minute)
	buf, err := cache.Get(manifestPath)
	assert.ErrorIs(t, err, ErrIntegrity)
	assert.Nil(t, buf)

	// The expired entry is gone; nothing is served from it later.
	_, err = cache.Get(manifestPath)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestCacheConcurrentMissesReassembleOnce(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int64
	r := reassembleFunc(func(string) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("content"), nil
	})
	cache := NewReassemblyCache(r, time.Hour)

	const numGoroutines = 50
	var wg sync.WaitGroup
	results := make(chan []byte, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf, err := cache.Get("game.data.manifest.json")
			if err == nil {
				results <- buf
			}
		}()
	}

	// Give the goroutines time to pile up behind the first reassembly.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	count := 0
	for buf := range results {
		assert.Equal(t, []byte("content"), buf)
		count++
	}
	assert.Equal(t, numGoroutines, count)
	assert.Equal(t, int64(1), calls.Load())
}

func TestCacheSeparateKeys(t *testing.T) {
	r := reassembleFunc(func(p string) ([]byte, error) { return []byte(p), nil })
	cache := NewReassemblyCache(r, 0)

	a, err := cache.Get("a")
	require.NoError(t, err)
	b, err := cache.Get("b")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), a)
	assert.Equal(t, []byte("b"), b)
	assert.Equal(t, DefaultCacheTTL, cache.ttl)
}
