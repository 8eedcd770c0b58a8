package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(clock func() time.Time) *TTLCacheService {
	if clock == nil {
		clock = time.Now
	}
	return &TTLCacheService{
		entries: make(map[string]cacheEntry),
		clock:   clock,
	}
}

func TestCacheGetOrLoad_FreshHitSkipsLoader(t *testing.T) {
	cache := newTestCache(nil)

	loads := 0
	loader := func() (interface{}, error) {
		loads++
		return "value", nil
	}

	v, err := cache.GetOrLoad("k", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	v, err = cache.GetOrLoad("k", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, 1, loads)
}

func TestCacheGetOrLoad_ExpiryReloads(t *testing.T) {
	now := time.Now()
	cache := newTestCache(func() time.Time { return now })

	loads := 0
	loader := func() (interface{}, error) {
		loads++
		return loads, nil
	}

	v, err := cache.GetOrLoad("k", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)

	v, err = cache.GetOrLoad("k", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, loads)
}

func TestCacheGetOrLoad_ServesStaleOnLoaderFailure(t *testing.T) {
	now := time.Now()
	cache := newTestCache(func() time.Time { return now })

	_, err := cache.GetOrLoad("k", time.Minute, func() (interface{}, error) {
		return "original", nil
	})
	require.NoError(t, err)

	now = now.Add(time.Hour)

	v, err := cache.GetOrLoad("k", time.Minute, func() (interface{}, error) {
		return nil, errors.New("db down")
	})
	require.NoError(t, err)
	assert.Equal(t, "original", v)
}

func TestCacheGetOrLoad_PropagatesErrorWithoutFallback(t *testing.T) {
	cache := newTestCache(nil)

	_, err := cache.GetOrLoad("k", time.Minute, func() (interface{}, error) {
		return nil, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.Equal(t, 0, cache.Size())
}

func TestCacheInvalidate_SubstringMatch(t *testing.T) {
	cache := newTestCache(nil)

	for _, key := range []string{"content:path:a", "content:course:b", "tree:a", "stats:platform"} {
		_, err := cache.GetOrLoad(key, time.Minute, func() (interface{}, error) { return 1, nil })
		require.NoError(t, err)
	}

	removed := cache.Invalidate("a")
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"content:course:b", "stats:platform"}, cache.Keys())
}

func TestCacheInvalidate_NoPatternsClearsAll(t *testing.T) {
	cache := newTestCache(nil)

	for _, key := range []string{"x", "y", "z"} {
		_, err := cache.GetOrLoad(key, time.Minute, func() (interface{}, error) { return 1, nil })
		require.NoError(t, err)
	}

	removed := cache.Invalidate()
	assert.Equal(t, 3, removed)
	assert.Equal(t, 0, cache.Size())
}

func TestCacheInvalidate_EmptyPatternRemovesNothing(t *testing.T) {
	cache := newTestCache(nil)

	_, err := cache.GetOrLoad("k", time.Minute, func() (interface{}, error) { return 1, nil })
	require.NoError(t, err)

	removed := cache.Invalidate("")
	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, cache.Size())
}
