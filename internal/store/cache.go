package store

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zault/zault/internal/crypto"
)

// DefaultCacheSize is the number of ciphertext blocks Cache holds by
// default, chosen so a vault with a few thousand files keeps its
// working set resident without bounding memory by file size (block
// bytes, not plaintext, are cached).
const DefaultCacheSize = 1024

// Cache is an in-memory LRU cache of ciphertext block bytes, keyed by
// hash. It holds exactly what is already on disk under that hash -
// never plaintext, never key material - so an eviction or a process
// restart loses nothing but a filesystem read.
type Cache struct {
	lru *lru.Cache[crypto.Hash, []byte]
}

// NewCache returns a Cache holding up to size blocks. size <= 0 uses
// DefaultCacheSize.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[crypto.Hash, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns the cached bytes for h, if present.
func (c *Cache) Get(h crypto.Hash) ([]byte, bool) {
	return c.lru.Get(h)
}

// Put caches b under h.
func (c *Cache) Put(h crypto.Hash, b []byte) {
	c.lru.Add(h, b)
}
