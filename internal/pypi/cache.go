package pypi

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	// ErrCacheCorrupted is returned when the cache file cannot be parsed
	ErrCacheCorrupted = errors.New("cache file is corrupted")
)

// DefaultCacheTTL is the default time-to-live for cached version lookups.
const DefaultCacheTTL = time.Hour

// CacheEntry is one cached version lookup.
type CacheEntry struct {
	// Version is the cached version string
	Version string `json:"version"`
	// Timestamp is when this entry was cached
	Timestamp time.Time `json:"timestamp"`
	// Source is the URL that was queried
	Source string `json:"source"`
}

// cacheFile is the JSON structure stored on disk
type cacheFile struct {
	Entries map[string]CacheEntry `json:"entries"`
}

// Cache persists version lookups to disk with TTL-based expiration.
type Cache struct {
	// Entries holds cached lookups keyed by package name
	Entries map[string]CacheEntry
	// TTL is the time-to-live for cache entries
	TTL time.Duration

	path    string
	mu      sync.RWMutex
	nowFunc func() time.Time
}

// CacheOption is a functional option for configuring Cache
type CacheOption func(*Cache)

// WithTTL sets a custom TTL for the cache.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.TTL = ttl
	}
}

// WithNowFunc sets a custom time function for testing.
func WithNowFunc(fn func() time.Time) CacheOption {
	return func(c *Cache) {
		c.nowFunc = fn
	}
}

// NewCache creates or loads a cache stored at configDir/cache.json.
// A missing or corrupted file yields an empty cache, never an error: losing
// cached lookups only costs extra requests.
func NewCache(configDir string, opts ...CacheOption) (*Cache, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache := &Cache{
		Entries: make(map[string]CacheEntry),
		TTL:     DefaultCacheTTL,
		path:    filepath.Join(configDir, "cache.json"),
		nowFunc: time.Now,
	}

	for _, opt := range opts {
		opt(cache)
	}

	if err := cache.load(); err != nil {
		if !os.IsNotExist(err) {
			// Corrupted file: start empty, it is overwritten on next Set.
			cache.Entries = make(map[string]CacheEntry)
		}
	}

	return cache, nil
}

// load reads the cache from disk
func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}

	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}

	if cf.Entries != nil {
		c.Entries = cf.Entries
	}

	return nil
}

// Get retrieves a cached version if present and not expired.
func (c *Cache) Get(pkg string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.Entries[pkg]
	if !exists {
		return "", false
	}

	if c.isExpired(entry) {
		return "", false
	}

	return entry.Version, true
}

// isExpired checks if a cache entry has expired based on TTL
func (c *Cache) isExpired(entry CacheEntry) bool {
	return c.nowFunc().Sub(entry.Timestamp) >= c.TTL
}

// Set stores a version with the current timestamp and saves to disk.
func (c *Cache) Set(pkg, version, source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Entries[pkg] = CacheEntry{
		Version:   version,
		Timestamp: c.nowFunc(),
		Source:    source,
	}

	return c.saveUnsafe()
}

// Delete removes a package from the cache and saves to disk.
func (c *Cache) Delete(pkg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.Entries, pkg)
	return c.saveUnsafe()
}

// Clear removes all entries and saves to disk.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Entries = make(map[string]CacheEntry)
	return c.saveUnsafe()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Entries)
}

// saveUnsafe persists the cache to disk without locking.
// Caller must hold the write lock.
func (c *Cache) saveUnsafe() error {
	data, err := json.MarshalIndent(cacheFile{Entries: c.Entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	return nil
}
