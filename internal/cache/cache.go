// Package cache implements a positive-only, lazily-expiring cache of
// A-record answers keyed by lower-cased domain name.
//
// Unlike the richer LRU/negative-caching TTLCache this forwarder's
// lineage carries, this cache deliberately does nothing beyond what
// the forwarding pipeline needs: no eviction policy, no negative
// entries, no size bound. An entry simply stops being returned once
// its expiry has passed, and is removed the next time something looks
// for it.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/duskrelay/dnsforward/internal/helpers"
)

// Entry is a single cached answer.
type Entry struct {
	IPv4    [4]byte
	Expires time.Time
}

// Cache maps lower-cased domain names to their cached A-record answer.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry), now: time.Now}
}

// Insert records addr as the answer for name, valid for ttlSecs
// seconds from now. Any prior entry for name is overwritten
// unconditionally, even if the new TTL is shorter.
func (c *Cache) Insert(name string, addr [4]byte, ttlSecs uint32) {
	key := strings.ToLower(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{
		IPv4:    addr,
		Expires: c.now().Add(time.Duration(ttlSecs) * time.Second),
	}
}

// Get returns the cached address for name and the remaining TTL in
// whole seconds (rounded up, never negative). The second return value
// is false if there is no entry, or if the entry has expired — in
// which case the expired entry is also removed.
func (c *Cache) Get(name string) (addr [4]byte, remainingTTL uint32, ok bool) {
	key := strings.ToLower(name)
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found {
		return [4]byte{}, 0, false
	}

	now := c.now()
	remaining := e.Expires.Sub(now)
	if remaining <= 0 {
		delete(c.entries, key)
		return [4]byte{}, 0, false
	}

	secs := int64(remaining / time.Second)
	if remaining%time.Second != 0 {
		secs++
	}
	return e.IPv4, helpers.ClampIntToUint32(int(secs)), true
}

// Len reports the number of entries currently stored, expired or not;
// it is provided for diagnostics/stats reporting only.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
