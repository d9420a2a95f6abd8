package ratchet

import (
	"fmt"
	"sync"
	"time"
)

type skippedEntry struct {
	key       MessageKeys
	counter   uint32
	stepID    string
	timestamp time.Time
}

func cacheKey(stepID string, counter uint32) string {
	return fmt.Sprintf("%s:%d", stepID, counter)
}

// Cache is the session-global skipped-message-key table of spec §4.7, keyed
// by stepId:counter, bounded both globally (maxGlobal, across all steps) and
// per DH step (maxPerStep, per §4.5's receiving-chain invariant).
type Cache struct {
	mu         sync.Mutex
	maxGlobal  int
	maxPerStep int
	ttl        time.Duration
	now        func() time.Time
	entries    map[string]*skippedEntry
}

// NewCache builds a Cache with the given bounds. now defaults to time.Now.
func NewCache(maxGlobal, maxPerStep int, ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		maxGlobal:  maxGlobal,
		maxPerStep: maxPerStep,
		ttl:        ttl,
		now:        now,
		entries:    make(map[string]*skippedEntry),
	}
}

// Store caches key at (stepID, counter), evicting to stay within bounds
// first: expired entries are purged, then the globally oldest entry if still
// at the global cap, then the oldest-counter entry for this step if the
// per-step cap would otherwise be exceeded.
func (c *Cache) Store(stepID string, counter uint32, key MessageKeys) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxGlobal {
		c.purgeExpiredLocked(c.now())
	}
	if len(c.entries) >= c.maxGlobal {
		c.evictOldestGlobalLocked()
	}
	if c.countForStepLocked(stepID) >= c.maxPerStep {
		c.evictOldestCounterForStepLocked(stepID)
	}

	c.entries[cacheKey(stepID, counter)] = &skippedEntry{
		key:       key,
		counter:   counter,
		stepID:    stepID,
		timestamp: c.now(),
	}
}

// Consume removes and returns the cached key at (stepID, counter), if any.
// An entry older than the configured TTL is treated as already evicted.
func (c *Cache) Consume(stepID string, counter uint32) (MessageKeys, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey(stepID, counter)
	e, ok := c.entries[k]
	if !ok {
		return MessageKeys{}, false
	}
	delete(c.entries, k)
	if c.now().Sub(e.timestamp) > c.ttl {
		return MessageKeys{}, false
	}
	return e.key, true
}

// Has reports whether a key is cached at (stepID, counter) without consuming
// it.
func (c *Cache) Has(stepID string, counter uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey(stepID, counter)]
	if !ok {
		return false
	}
	return c.now().Sub(e.timestamp) <= c.ttl
}

// PurgeExpired deletes every entry older than the configured TTL as of now.
func (c *Cache) PurgeExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeExpiredLocked(now)
}

// PurgeForStep deletes every cached entry belonging to stepID, used when the
// step ring evicts that step.
func (c *Cache) PurgeForStep(stepID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.stepID == stepID {
			delete(c.entries, k)
		}
	}
}

// Len reports the total number of cached entries across all steps.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CacheEntrySnapshot is one cached skipped key in a form suitable for
// session persistence (spec §6).
type CacheEntrySnapshot struct {
	StepID        string
	Counter       uint32
	Key           MessageKeys
	TimestampUnix int64
}

// Snapshot returns every cached entry for serialization.
func (c *Cache) Snapshot() []CacheEntrySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CacheEntrySnapshot, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, CacheEntrySnapshot{
			StepID:        e.stepID,
			Counter:       e.counter,
			Key:           e.key,
			TimestampUnix: e.timestamp.UnixNano(),
		})
	}
	return out
}

// RestoreCache rebuilds a Cache from a prior Snapshot.
func RestoreCache(maxGlobal, maxPerStep int, ttl time.Duration, now func() time.Time, entries []CacheEntrySnapshot) *Cache {
	c := NewCache(maxGlobal, maxPerStep, ttl, now)
	for _, e := range entries {
		c.entries[cacheKey(e.StepID, e.Counter)] = &skippedEntry{
			key:       e.Key,
			counter:   e.Counter,
			stepID:    e.StepID,
			timestamp: time.Unix(0, e.TimestampUnix),
		}
	}
	return c
}

func (c *Cache) purgeExpiredLocked(now time.Time) {
	for k, e := range c.entries {
		if now.Sub(e.timestamp) > c.ttl {
			delete(c.entries, k)
		}
	}
}

func (c *Cache) evictOldestGlobalLocked() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for k, e := range c.entries {
		if first || e.timestamp.Before(oldestTime) {
			oldestKey, oldestTime, first = k, e.timestamp, false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

func (c *Cache) countForStepLocked(stepID string) int {
	n := 0
	for _, e := range c.entries {
		if e.stepID == stepID {
			n++
		}
	}
	return n
}

func (c *Cache) evictOldestCounterForStepLocked(stepID string) {
	var oldestKey string
	var oldestCounter uint32
	first := true
	for k, e := range c.entries {
		if e.stepID != stepID {
			continue
		}
		if first || e.counter < oldestCounter {
			oldestKey, oldestCounter, first = k, e.counter, false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
