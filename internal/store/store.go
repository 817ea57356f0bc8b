// Package store implements Zault's content-addressed block store: a
// sharded directory tree under <vault>/blocks/, written with
// atomic rename semantics, plus two optional accelerators that never
// hold plaintext - a SQLite index cache mapping hash to block type,
// and an in-memory LRU cache of ciphertext block bytes.
package store

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/zault/zault/internal/core"
	"github.com/zault/zault/internal/crypto"
)

// hashHexLen is the length of a hash's lowercase hex encoding.
const hashHexLen = crypto.HashSize * 2

// Store is a content-addressed filesystem rooted at a blocks
// directory. The zero value is not usable; construct with Open.
type Store struct {
	root  string // <vault>/blocks
	index *Index // optional; nil disables the index cache
	cache *Cache // optional; nil disables the read cache
}

// Options configures optional accelerators. Both are safe to leave
// nil; Store behaves identically, just without the cache hit path.
type Options struct {
	Index *Index
	Cache *Cache
}

// Open returns a Store rooted at root, creating it if necessary. It
// does not interpret any files already present.
func Open(root string, opts Options) (*Store, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	return &Store{root: root, index: opts.Index, cache: opts.Cache}, nil
}

// pathFor returns the shard directory and final file path for hash h.
func (s *Store) pathFor(h crypto.Hash) (shardDir, finalPath string) {
	hexHash := hex.EncodeToString(h[:])
	shard := hex.EncodeToString(h[:1])
	shardDir = filepath.Join(s.root, shard)
	finalPath = filepath.Join(shardDir, hexHash)
	return shardDir, finalPath
}

// Put writes block bytes b under hash h, atomically. If a file
// already exists at h's path with identical contents, Put succeeds
// silently; if its contents differ, Put fails with
// core.ErrHashCollision, since on SHA3-256 that can only mean
// corruption.
func (s *Store) Put(h crypto.Hash, b []byte) error {
	shardDir, finalPath := s.pathFor(h)
	if err := os.MkdirAll(shardDir, 0700); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}

	if existing, err := os.ReadFile(finalPath); err == nil {
		if !bytes.Equal(existing, b) {
			return fmt.Errorf("%w: %s", core.ErrHashCollision, hex.EncodeToString(h[:]))
		}
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}

	tmpPath := filepath.Join(shardDir, fmt.Sprintf("%s.%s.tmp", hex.EncodeToString(h[:]), uuid.NewString()))
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}

	if s.cache != nil {
		s.cache.Put(h, b)
	}
	return nil
}

// Index returns the store's optional index cache, or nil if none was
// configured. The store itself never interprets block contents, so it
// is up to the caller (the vault layer, which knows each block's
// type) to record hash/type pairs here.
func (s *Store) Index() *Index {
	return s.index
}

// Get returns the bytes stored under h, or core.ErrNotFound.
func (s *Store) Get(h crypto.Hash) ([]byte, error) {
	if s.cache != nil {
		if b, ok := s.cache.Get(h); ok {
			return b, nil
		}
	}

	_, finalPath := s.pathFor(h)
	b, err := os.ReadFile(finalPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, hex.EncodeToString(h[:]))
		}
		return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
	}

	if s.cache != nil {
		s.cache.Put(h, b)
	}
	return b, nil
}

// Has reports whether a block is stored under h.
func (s *Store) Has(h crypto.Hash) bool {
	if s.cache != nil {
		if _, ok := s.cache.Get(h); ok {
			return true
		}
	}
	_, finalPath := s.pathFor(h)
	_, err := os.Stat(finalPath)
	return err == nil
}

// Iter lazily walks the shard directories in filesystem order,
// yielding every stored hash exactly once. It ignores .tmp files and
// any entry whose name is not exactly a 64-character lowercase hex
// string. The returned sequence is not restartable across concurrent
// mutations of the tree.
func (s *Store) Iter() (func(yield func(crypto.Hash) bool), error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return func(func(crypto.Hash) bool) {}, nil
		}
		return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
	}

	return func(yield func(crypto.Hash) bool) {
		for _, shardEntry := range entries {
			if !shardEntry.IsDir() {
				continue
			}
			shardPath := filepath.Join(s.root, shardEntry.Name())
			files, err := os.ReadDir(shardPath)
			if err != nil {
				continue
			}
			for _, f := range files {
				if f.IsDir() {
					continue
				}
				name := f.Name()
				if !isBlockFilename(name) {
					continue
				}
				raw, err := hex.DecodeString(name)
				if err != nil || len(raw) != crypto.HashSize {
					continue
				}
				var h crypto.Hash
				copy(h[:], raw)
				if !yield(h) {
					return
				}
			}
		}
	}, nil
}

// isBlockFilename reports whether name is exactly 64 lowercase hex
// characters, i.e. not a .tmp file and not anything else that might
// share the shard directory.
func isBlockFilename(name string) bool {
	if len(name) != hashHexLen {
		return false
	}
	for _, c := range name {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
