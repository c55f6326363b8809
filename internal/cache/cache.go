// Package cache keeps short-lived JSON snapshots of provider responses on the active filesystem.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AlexMakesC0de/anime-watch/filesystem"
	"github.com/AlexMakesC0de/anime-watch/log"
)

// TTL is how long a snapshot stays fresh.
const TTL = 6 * time.Hour

// Cache is a directory of keyed JSON snapshots.
type Cache struct {
	dir string
	ttl time.Duration
}

// New returns a cache rooted at dir. A non-positive ttl means TTL.
func New(dir string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = TTL
	}
	return &Cache{dir: dir, ttl: ttl}
}

// Key derives a deterministic file name from a query and the origin it was sent to.
func Key(query, origin string) string {
	sanitized := strings.ToLower(strings.Join(strings.Fields(query), " ")) + "|" + origin
	hash := sha256.Sum256([]byte(sanitized))
	return hex.EncodeToString(hash[:])
}

// Read decodes the snapshot under key into target if it exists and is fresh.
func (c *Cache) Read(key string, target any) bool {
	path := filepath.Join(c.dir, key)

	info, err := filesystem.API().Stat(path)
	if err != nil || time.Since(info.ModTime()) > c.ttl {
		return false
	}

	f, err := filesystem.API().Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(target) == nil
}

// Write stores data under key, replacing the previous snapshot atomically.
func (c *Cache) Write(key string, data any) error {
	fs := filesystem.API()
	if err := fs.MkdirAll(c.dir, os.ModePerm); err != nil {
		return err
	}

	path := filepath.Join(c.dir, key)
	tmpPath := path + ".tmp"

	f, err := fs.Create(tmpPath)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(f).Encode(data); err != nil {
		f.Close()
		return err
	}
	f.Close()

	return fs.Rename(tmpPath, path)
}

// CollectGarbage removes expired snapshots.
func (c *Cache) CollectGarbage() {
	fs := filesystem.API()
	_ = fs.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > c.ttl {
			if err := fs.Remove(path); err == nil {
				log.Debugf("removed expired snapshot %s", info.Name())
			}
		}
		return nil
	})
}
