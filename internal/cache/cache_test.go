package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_InsertThenGet(t *testing.T) {
	c := New()
	c.Insert("Example.COM.", [4]byte{1, 2, 3, 4}, 60)

	addr, ttl, ok := c.Get("example.com.")
	require.True(t, ok)
	assert.Equal(t, [4]byte{1, 2, 3, 4}, addr)
	assert.Equal(t, uint32(60), ttl)
}

func TestCache_GetMiss(t *testing.T) {
	c := New()
	_, _, ok := c.Get("nowhere.invalid.")
	assert.False(t, ok)
}

func TestCache_InsertOverwritesPriorEntry(t *testing.T) {
	c := New()
	c.Insert("example.com.", [4]byte{1, 1, 1, 1}, 60)
	c.Insert("example.com.", [4]byte{2, 2, 2, 2}, 10)

	addr, ttl, ok := c.Get("example.com.")
	require.True(t, ok)
	assert.Equal(t, [4]byte{2, 2, 2, 2}, addr)
	assert.Equal(t, uint32(10), ttl)
}

func TestCache_ExpiredEntryIsRemovedAndMisses(t *testing.T) {
	start := time.Now()
	c := New()
	c.now = func() time.Time { return start }
	c.Insert("example.com.", [4]byte{1, 1, 1, 1}, 5)

	c.now = func() time.Time { return start.Add(6 * time.Second) }
	_, _, ok := c.Get("example.com.")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry should have been evicted on read")
}

func TestCache_RemainingTTLRoundsUp(t *testing.T) {
	start := time.Now()
	c := New()
	c.now = func() time.Time { return start }
	c.Insert("example.com.", [4]byte{1, 1, 1, 1}, 10)

	c.now = func() time.Time { return start.Add(2500 * time.Millisecond) }
	_, ttl, ok := c.Get("example.com.")
	require.True(t, ok)
	assert.Equal(t, uint32(8), ttl, "7.5s remaining should round up to 8")
}
