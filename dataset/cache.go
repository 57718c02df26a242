package dataset

import (
	"path/filepath"
	"time"

	"github.com/mbtiatlas/insights/consts"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes datasets by source identity. A source is recomputed only when its key
// is new or its entry expired.
type Cache struct {
	items *gocache.Cache
	group singleflight.Group
	open  func(defaultPath string, upload *Upload) (*Dataset, error)
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		items: gocache.New(ttl, consts.CacheCleanupEvery),
		open:  Open,
	}
}

// SourceKey identifies the source Load would pick: the default file by absolute path,
// or the upload by content hash. It is empty when there is no source.
func SourceKey(defaultPath string, upload *Upload) string {
	if fileExists(defaultPath) {
		if abs, err := filepath.Abs(defaultPath); err == nil {
			return "local:" + abs
		}
		return "local:" + defaultPath
	}
	if upload != nil {
		return "upload:" + upload.ID()
	}
	return ""
}

// Get returns the cached dataset for the source, loading it on a miss.
// Failed loads are not cached.
func (c *Cache) Get(defaultPath string, upload *Upload) (*Dataset, error) {
	key := SourceKey(defaultPath, upload)
	if key == "" {
		return nil, &NoDataSourceError{Path: defaultPath}
	}
	if v, ok := c.items.Get(key); ok {
		return v.(*Dataset), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		ds, err := c.open(defaultPath, upload)
		if err != nil {
			return nil, err
		}
		c.items.SetDefault(key, ds)
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

// Invalidate drops the entry for the source, forcing the next Get to reload it.
func (c *Cache) Invalidate(defaultPath string, upload *Upload) {
	c.items.Delete(SourceKey(defaultPath, upload))
}

func (c *Cache) Len() int {
	return c.items.ItemCount()
}
