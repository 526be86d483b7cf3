package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Cache persists the last published results as JSON so a restart can show
// data immediately instead of a blank screen until the first cycle lands.
type Cache struct {
	path string
}

// NewCache returns a cache stored under dataDir.
func NewCache(dataDir string) *Cache {
	return &Cache{path: filepath.Join(dataDir, "cache.json")}
}

// Load reads the cached results. Any failure (missing file, stale format)
// returns nil; the cache is an optimization, never a source of truth.
func (c *Cache) Load() *Results {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil
	}
	var results Results
	if err := json.Unmarshal(data, &results); err != nil {
		return nil
	}
	if len(results.Devices) == 0 {
		return nil
	}
	return &results
}

// Save writes results atomically via a temp-file rename, so a crash mid-write
// never leaves a truncated cache behind.
func (c *Cache) Save(results *Results) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
