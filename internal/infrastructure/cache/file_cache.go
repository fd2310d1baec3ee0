// Package cache keeps raw backend replies so a repeated task skips the round trip.
// Parsing and classification always run again on cached text.
package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/pkg/filesystem"
	"github.com/doeshing/shai-go/internal/ports"
)

// FileCache stores provider responses as JSON blobs addressed by hash key.
type FileCache struct {
	dir        string
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// DefaultDir is ~/.shai/cache/responses.
func DefaultDir() string {
	return filesystem.DataPath("cache", "responses")
}

// NewFileCache returns a cache rooted at dir (DefaultDir when empty).
func NewFileCache(dir string, ttl time.Duration, maxEntries int) *FileCache {
	if dir == "" {
		dir = DefaultDir()
	}
	return &FileCache{dir: dir, maxEntries: maxEntries, ttl: ttl, now: time.Now}
}

// Get retrieves a cache entry. Expired entries are removed and reported as misses.
func (c *FileCache) Get(key string) (domain.CacheEntry, bool, error) {
	if key == "" {
		return domain.CacheEntry{}, false, nil
	}
	path := c.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.CacheEntry{}, false, nil
		}
		return domain.CacheEntry{}, false, err
	}
	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return domain.CacheEntry{}, false, nil
	}
	if c.ttl > 0 && c.now().Sub(entry.CreatedAt) > c.ttl {
		_ = os.Remove(path)
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Set stores a cache entry.
func (c *FileCache) Set(entry domain.CacheEntry) error {
	if entry.Key == "" {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.dir, domain.DirectoryPermissions); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.pathFor(entry.Key), data, domain.SecureFilePermissions); err != nil {
		return err
	}
	return c.evictIfNeeded()
}

// Dir exposes the cache directory path.
func (c *FileCache) Dir() string {
	return c.dir
}

// Clear removes all cached entries.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(c.dir)
}

// Entries lists cache entries (best-effort).
func (c *FileCache) Entries() ([]domain.CacheEntry, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var entries []domain.CacheEntry
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, f.Name()))
		if err != nil {
			continue
		}
		var entry domain.CacheEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (c *FileCache) pathFor(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// evictIfNeeded drops the oldest files until at most maxEntries remain.
func (c *FileCache) evictIfNeeded() error {
	if c.maxEntries <= 0 {
		return nil
	}
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(files) <= c.maxEntries {
		return nil
	}
	type fileInfo struct {
		name string
		mod  time.Time
	}
	var infos []fileInfo
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo{name: f.Name(), mod: info.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].mod.Before(infos[j].mod) })
	for len(infos) > c.maxEntries {
		_ = os.Remove(filepath.Join(c.dir, infos[0].name))
		infos = infos[1:]
	}
	return nil
}

var _ ports.CacheRepository = (*FileCache)(nil)
