package tle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cache keeps the last few fetched catalogs on disk so a daemon restart can
// serve analyze requests before the first refresh completes.
type Cache struct {
	dir      string
	maxFiles int
}

// NewCache stores catalogs under dir, keeping at most maxFiles of them.
func NewCache(dir string, maxFiles int) *Cache {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &Cache{dir: dir, maxFiles: maxFiles}
}

// Write saves a catalog under a fetch-timestamped name and prunes the oldest
// files beyond the retention count.
func (c *Cache) Write(data []byte, fetchedAt time.Time) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	name := fmt.Sprintf("catalog_%d.tle", fetchedAt.Unix())
	if err := os.WriteFile(filepath.Join(c.dir, name), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	files, err := c.list()
	if err != nil {
		return err
	}
	for _, stale := range files[min(c.maxFiles, len(files)):] {
		if err := os.Remove(filepath.Join(c.dir, stale.name)); err != nil {
			return fmt.Errorf("pruning cache file %s: %w", stale.name, err)
		}
	}
	return nil
}

// LoadLatest returns the newest cached catalog and its fetch time.
func (c *Cache) LoadLatest() ([]byte, time.Time, error) {
	files, err := c.list()
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(files) == 0 {
		return nil, time.Time{}, fmt.Errorf("no cached catalogs in %s", c.dir)
	}

	data, err := os.ReadFile(filepath.Join(c.dir, files[0].name))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading cache file: %w", err)
	}
	return data, files[0].fetchedAt, nil
}

type cachedFile struct {
	name      string
	fetchedAt time.Time
}

// list returns the cache files newest first. Filenames that do not match the
// catalog_<unix>.tle pattern are ignored.
func (c *Cache) list() ([]cachedFile, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}

	var files []cachedFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stamp, ok := strings.CutPrefix(e.Name(), "catalog_")
		if !ok {
			continue
		}
		stamp, ok = strings.CutSuffix(stamp, ".tle")
		if !ok {
			continue
		}
		unix, err := strconv.ParseInt(stamp, 10, 64)
		if err != nil {
			continue
		}
		files = append(files, cachedFile{name: e.Name(), fetchedAt: time.Unix(unix, 0)})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].fetchedAt.After(files[j].fetchedAt)
	})
	return files, nil
}
