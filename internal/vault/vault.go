// Package vault orchestrates identity, the derived vault master key,
// and the block store into Zault's four user-facing operations:
// add_file, get_file, list, and verify.
package vault

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zault/zault/internal/block"
	"github.com/zault/zault/internal/core"
	"github.com/zault/zault/internal/crypto"
	"github.com/zault/zault/internal/identity"
	"github.com/zault/zault/internal/logging"
	"github.com/zault/zault/internal/metadata"
	"github.com/zault/zault/internal/store"
)

// MaxFileSize is the cap add_file enforces on plaintext input, per
// §4.6.
const MaxFileSize = 100 * 1024 * 1024

const (
	identityFileName = "identity.bin"
	blocksDirName    = "blocks"
	indexFileName    = ".index.db"

	masterKeySalt = "zault-vault-master-key-v1"
	masterKeyInfo = "vault-metadata-encryption"
)

// Vault owns one identity, one block store, and lazily derives the
// vault master key on first use.
type Vault struct {
	path     string
	identity *identity.Identity
	store    *store.Store
	index    *store.Index

	masterKey []byte // lazily derived, 32 bytes
	log       *logging.Logger
}

// Entry describes one file reachable via List.
type Entry struct {
	Hash     crypto.Hash
	Filename string
	Mime     string
	Size     uint64
}

// Init opens the vault at path, creating it (and a fresh identity) if
// it does not already exist. Use WithoutIndex to skip the optional
// SQLite index cache.
func Init(path string, opts ...Option) (*Vault, error) {
	cfg := options{useIndex: true, cacheSize: store.DefaultCacheSize}
	for _, o := range opts {
		o(&cfg)
	}

	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	blocksDir := filepath.Join(path, blocksDirName)
	if err := os.MkdirAll(blocksDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
	}

	identityPath := filepath.Join(path, identityFileName)
	id, err := loadOrGenerateIdentity(identityPath)
	if err != nil {
		return nil, err
	}

	var idx *store.Index
	if cfg.useIndex {
		idx, err = store.OpenIndex(filepath.Join(path, indexFileName))
		if err != nil {
			return nil, err
		}
	}

	cache, err := store.NewCache(cfg.cacheSize)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(blocksDir, store.Options{Index: idx, Cache: cache})
	if err != nil {
		return nil, err
	}

	return &Vault{
		path:     path,
		identity: id,
		store:    st,
		index:    idx,
		log:      logging.WithComponent("vault"),
	}, nil
}

func loadOrGenerateIdentity(path string) (*identity.Identity, error) {
	if _, err := os.Stat(path); err == nil {
		return identity.Load(path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
	}

	id, err := identity.Generate()
	if err != nil {
		return nil, err
	}
	if err := id.Save(path); err != nil {
		return nil, err
	}
	return id, nil
}

// Close releases the vault's resources and zeroes its identity and
// derived master key.
func (v *Vault) Close() error {
	if v.masterKey != nil {
		crypto.Zeroize(v.masterKey)
		v.masterKey = nil
	}
	v.identity.Zero()
	if v.index != nil {
		return v.index.Close()
	}
	return nil
}

// Identity returns the vault's loaded identity. Callers must not
// persist or zero it directly; use Vault.Close.
func (v *Vault) Identity() *identity.Identity {
	return v.identity
}

// deriveMasterKey derives K_v on first call and caches it for the
// lifetime of the Vault.
func (v *Vault) deriveMasterKey() ([]byte, error) {
	if v.masterKey != nil {
		return v.masterKey, nil
	}
	dsaSecretBytes, err := v.identity.DSASecret.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("derive vault master key: %w", err)
	}
	defer crypto.Zeroize(dsaSecretBytes)

	prk := crypto.HKDFExtract([]byte(masterKeySalt), dsaSecretBytes)
	kv, err := crypto.HKDFExpand(prk, []byte(masterKeyInfo), crypto.SymmetricKeySize)
	if err != nil {
		return nil, fmt.Errorf("derive vault master key: %w", err)
	}
	v.masterKey = kv
	return v.masterKey, nil
}
