package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cached payloads live under cache/ as JSON files keyed by an xxHash of
// the request path and query string.

func cachePath(key string) string {
	hash := xxhash.Sum64String(key)
	return filepath.Join("cache", fmt.Sprintf("%016x.json", hash))
}

func ensureCacheDir() error {
	return os.MkdirAll("cache", 0755)
}

// Write stores a JSON payload for the given key.
func Write(key string, payload []byte) error {
	if err := ensureCacheDir(); err != nil {
		return err
	}
	return os.WriteFile(cachePath(key), payload, 0644)
}

// Read returns the cached payload for key if it exists and is younger
// than maxAge.
func Read(key string, maxAge time.Duration) ([]byte, bool) {
	path := cachePath(key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > maxAge {
		return nil, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return content, true
}

// Clear removes the cached payload for a specific key.
func Clear(key string) error {
	err := os.Remove(cachePath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ClearAll removes every cached payload.
func ClearAll() error {
	return os.RemoveAll("cache")
}

// ClearOld removes cache files older than maxAge.
func ClearOld(maxAge time.Duration) error {
	return filepath.Walk("cache", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".json") {
			return nil
		}
		if time.Since(info.ModTime()) > maxAge {
			os.Remove(path)
		}
		return nil
	})
}
