// Package cache provides the in-memory TTL cache fronting the translation
// stage.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultCleanupInterval = 10 * time.Minute

// Memory is a thread-safe key/value cache with per-entry expiry. Concurrent
// gets and sets across pipeline runs are safe.
type Memory struct {
	entries *gocache.Cache
}

// NewMemory creates a cache whose entries expire after defaultTTL unless a
// set call overrides it.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{
		entries: gocache.New(defaultTTL, defaultCleanupInterval),
	}
}

// Get returns the cached value for key and whether it was present and
// unexpired.
func (m *Memory) Get(key string) (string, bool) {
	value, found := m.entries.Get(key)
	if !found {
		return "", false
	}

	text, ok := value.(string)
	if !ok {
		return "", false
	}

	return text, true
}

// Set stores value under key for ttl. A non-positive ttl falls back to the
// cache default.
func (m *Memory) Set(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}

	m.entries.Set(key, value, ttl)
}
