// services/cache.go
package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

// TTLCacheService is the process-local read-through cache every repository
// read funnels through. Entries expire per key; an expired entry is kept
// around so it can be served stale when a reload fails. There is no eviction
// beyond TTL: the write paths invalidate explicitly after every mutation.
type TTLCacheService struct {
	context.DefaultService

	mu      sync.RWMutex
	entries map[string]cacheEntry
	clock   func() time.Time
}

type cacheEntry struct {
	value    interface{}
	storedAt time.Time
	ttl      time.Duration
}

const CACHE_SVC = "cache_svc"

func (svc TTLCacheService) Id() string {
	return CACHE_SVC
}

func (svc *TTLCacheService) Configure(ctx *context.Context) error {
	svc.entries = make(map[string]cacheEntry)
	svc.clock = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *TTLCacheService) Start() error {
	return nil
}

func (svc *TTLCacheService) now() time.Time {
	if svc.clock != nil {
		return svc.clock()
	}
	return time.Now()
}

// GetOrLoad returns the cached value for key when it is still fresh,
// otherwise invokes loader. A failed load falls back to the previous value,
// however old, and only propagates the error when there is nothing to fall
// back to. Concurrent loads for the same key are not deduplicated; the last
// one to finish wins.
func (svc *TTLCacheService) GetOrLoad(key string, ttl time.Duration, loader func() (interface{}, error)) (interface{}, error) {
	svc.mu.RLock()
	entry, ok := svc.entries[key]
	svc.mu.RUnlock()

	if ok && svc.now().Sub(entry.storedAt) < entry.ttl {
		cacheHitsTotal.Inc()
		return entry.value, nil
	}

	value, err := loader()
	if err != nil {
		if ok {
			cacheStaleServesTotal.Inc()
			log.WithError(err).WithField("key", key).Warn("Cache reload failed, serving stale value")
			return entry.value, nil
		}
		return nil, err
	}

	svc.mu.Lock()
	svc.entries[key] = cacheEntry{value: value, storedAt: svc.now(), ttl: ttl}
	svc.mu.Unlock()

	cacheMissesTotal.Inc()
	return value, nil
}

// Invalidate removes every key containing any of the given substrings and
// returns the number of entries dropped. With no arguments it clears the
// whole cache.
func (svc *TTLCacheService) Invalidate(patterns ...string) int {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if len(patterns) == 0 {
		removed := len(svc.entries)
		svc.entries = make(map[string]cacheEntry)
		return removed
	}

	removed := 0
	for key := range svc.entries {
		for _, pattern := range patterns {
			if pattern != "" && strings.Contains(key, pattern) {
				delete(svc.entries, key)
				removed++
				break
			}
		}
	}
	return removed
}

// Size returns the current number of entries, expired ones included.
func (svc *TTLCacheService) Size() int {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return len(svc.entries)
}

// Keys returns the cached keys sorted for stable introspection output.
func (svc *TTLCacheService) Keys() []string {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	keys := make([]string, 0, len(svc.entries))
	for key := range svc.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
