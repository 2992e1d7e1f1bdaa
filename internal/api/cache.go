// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the church backend.
package api

import (
	"sync"
	"time"
)

// defaultCacheTTL is how long a GET response stays fresh. Short on
// purpose: the cache exists to absorb rapid re-renders, not to serve as a
// data store.
const defaultCacheTTL = 30 * time.Second

// responseCache is a small TTL cache for GET responses. Entries are
// dropped wholesale on any mutation and on every authentication change
// so cached data never outlives the session that fetched it.
type responseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body    []byte
	fetched time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (rc *responseCache) get(key string) ([]byte, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	entry, ok := rc.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.fetched) > rc.ttl {
		delete(rc.entries, key)
		return nil, false
	}
	return entry.body, true
}

func (rc *responseCache) put(key string, body []byte) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries[key] = cacheEntry{body: body, fetched: time.Now()}
}

func (rc *responseCache) clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries = make(map[string]cacheEntry)
}
