package expr

import (
	"runtime"
	"sync"

	"github.com/golang/groupcache/lru"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// TypeNameCache caches the type references found in a type expression,
// keyed by the expression's source text. The same type text (Option<String>,
// &mut Vec<Node>) shows up across many fields and signatures of a crate.
type TypeNameCache struct {
	cache *lru.Cache
	mu    sync.Mutex
}

// NewTypeNameCache creates a new TypeNameCache of the given size and registers a cleanup function.
func NewTypeNameCache(size int) *TypeNameCache {
	tc := &TypeNameCache{
		cache: lru.New(size),
	}

	runtime.AddCleanup(tc, func(c *lru.Cache) {
		c.Clear()
	}, tc.cache)

	return tc
}

// Get returns the cached references for the given type text, if available.
func (c *TypeNameCache) Get(text string) ([]TypeRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if val, ok := c.cache.Get(text); ok {
		return val.([]TypeRef), true
	}
	return nil, false
}

// Put adds the references for a type text into the cache.
func (c *TypeNameCache) Put(text string, refs []TypeRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(text, refs)
}

// Refs returns the type references of node, using the cache to avoid
// walking identical type expressions twice. The returned slice is shared
// and must not be modified.
func (c *TypeNameCache) Refs(node *tree_sitter.Node, source []byte) []TypeRef {
	if node == nil {
		return nil
	}
	text := Text(node, source)
	if refs, ok := c.Get(text); ok {
		return refs
	}

	refs := CollectTypeRefs(node, source)
	c.Put(text, refs)
	return refs
}

// Len reports the number of cached type expressions.
func (c *TypeNameCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// Clear clears the cache.
func (c *TypeNameCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Clear()
}
