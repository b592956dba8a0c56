package analysis

import (
	"sync"

	"github.com/TFMV/rsmetrics/parser"
	"github.com/TFMV/rsmetrics/types"
	"github.com/cespare/xxhash/v2"
	"github.com/golang/groupcache/lru"
)

// FileCache memoises per-file extraction results keyed by a digest of the
// file's path and content, so an unchanged file is parsed once per process.
type FileCache struct {
	cache *lru.Cache
	mu    sync.Mutex
}

func NewFileCache(size int) *FileCache {
	return &FileCache{
		cache: lru.New(size),
	}
}

// Digest returns the cache key of a source file.
func Digest(src types.Source) uint64 {
	d := xxhash.New()
	d.WriteString(src.Path)
	d.Write([]byte{0})
	d.Write(src.Content)
	return d.Sum64()
}

func (c *FileCache) Get(key uint64) (parser.FileAnalysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if val, ok := c.cache.Get(key); ok {
		return val.(parser.FileAnalysis), true
	}
	return parser.FileAnalysis{}, false
}

func (c *FileCache) Put(key uint64, fa parser.FileAnalysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, fa)
}

func (c *FileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
