package cache

import (
	"errors"
	"time"
)

// LayeredCache keeps recent analysis results in process memory in front of
// the on-disk store that survives restarts. Entries live in memory for at
// most memoryTTL, however long they live on disk.
type LayeredCache struct {
	memory    Cache
	disk      Cache
	memoryTTL time.Duration
}

// NewLayeredCache creates a memory layer over a disk store rooted at diskDir
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory:    NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:      NewDiskCache(diskDir, diskTTL),
		memoryTTL: memoryTTL,
	}
}

// Get checks memory, then disk. Disk hits are promoted to memory.
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set writes through to both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, c.memoryTTLFor(ttl)); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// memoryTTLFor caps ttl at the memory layer's lifetime; 0 keeps the default
func (c *LayeredCache) memoryTTLFor(ttl time.Duration) time.Duration {
	if ttl > 0 && c.memoryTTL > 0 && ttl > c.memoryTTL {
		return c.memoryTTL
	}
	return ttl
}

// Delete removes key from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}
