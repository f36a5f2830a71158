// Package cache keeps computed results on disk between runs, keyed by a
// hash of whatever determines them.
package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const fileName = "results.gob"

type entry[V any] struct {
	Value        V
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache is safe for concurrent use. Changes reach disk on Flush.
type Cache[V any] struct {
	dir     string
	entries map[string]entry[V]
	mutex   sync.Mutex
	maxAge  time.Duration
	dirty   bool

	now func() time.Time
}

// New opens the cache stored in dir, creating the directory if needed.
func New[V any](dir string) (*Cache[V], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache[V]{
		dir:     dir,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
	if err := c.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}
	return c, nil
}

func (c *Cache[V]) path() string {
	return filepath.Join(c.dir, fileName)
}

func (c *Cache[V]) load() error {
	file, err := os.Open(c.path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(&c.entries); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}
	return nil
}

func (c *Cache[V]) save() error {
	file, err := os.Create(c.path())
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(c.entries); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	return nil
}

// SetMaxAge expires entries older than d. Zero keeps them forever.
func (c *Cache[V]) SetMaxAge(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = d
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	now := c.now()
	if c.maxAge > 0 && now.Sub(e.CreatedAt) > c.maxAge {
		delete(c.entries, key)
		c.dirty = true
		var zero V
		return zero, false
	}

	e.LastAccessed = now
	c.entries[key] = e
	return e.Value, true
}

func (c *Cache[V]) Set(key string, v V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	c.entries[key] = entry[V]{Value: v, CreatedAt: now, LastAccessed: now}
	c.dirty = true
}

func (c *Cache[V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.entries)
}

// Flush writes the cache to disk if it changed since the last flush.
func (c *Cache[V]) Flush() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.dirty {
		return nil
	}
	if err := c.save(); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// InvalidateAll drops every entry, on disk too.
func (c *Cache[V]) InvalidateAll() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]entry[V])
	c.dirty = false
	return c.save()
}

// Key hashes parts into a cache key. Parts are length-prefixed, so
// ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s", len(p), p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
