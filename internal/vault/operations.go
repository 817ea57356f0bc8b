package vault

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/zault/zault/internal/block"
	"github.com/zault/zault/internal/core"
	"github.com/zault/zault/internal/crypto"
	"github.com/zault/zault/internal/metadata"
	"github.com/zault/zault/internal/store"
)

// AddFile reads localPath, encrypts it into a content block and a
// paired metadata block, stores both, and returns the metadata
// block's hash. See §4.6 for the exact five-step pipeline this
// follows.
func (v *Vault) AddFile(localPath string) (crypto.Hash, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return crypto.Hash{}, fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	if len(data) > MaxFileSize {
		return crypto.Hash{}, fmt.Errorf("%w: %s is %d bytes, exceeds %d", core.ErrFileTooLarge, localPath, len(data), MaxFileSize)
	}

	filename := filepath.Base(localPath)
	mime := http.DetectContentType(data)

	return v.addFileBytes(filename, mime, data)
}

// addFileBytes is AddFile's body after the file read: it takes the
// filename, MIME type and content already in memory.
func (v *Vault) addFileBytes(filename, mime string, data []byte) (crypto.Hash, error) {
	contentKey, err := crypto.RandomBytes(crypto.SymmetricKeySize)
	if err != nil {
		return crypto.Hash{}, err
	}
	defer crypto.Zeroize(contentKey)

	contentBlock, err := block.Build(block.TypeContent, 0, v.identity.DSAPublic, block.ZeroHash, contentKey, data)
	if err != nil {
		return crypto.Hash{}, fmt.Errorf("build content block: %w", err)
	}
	if err := contentBlock.Sign(v.identity.DSASecret); err != nil {
		return crypto.Hash{}, fmt.Errorf("sign content block: %w", err)
	}
	contentHash, err := contentBlock.Hash()
	if err != nil {
		return crypto.Hash{}, fmt.Errorf("hash content block: %w", err)
	}
	contentBytes, err := contentBlock.Serialize()
	if err != nil {
		return crypto.Hash{}, fmt.Errorf("serialize content block: %w", err)
	}
	if err := v.store.Put(contentHash, contentBytes); err != nil {
		return crypto.Hash{}, err
	}
	if v.index != nil {
		_ = v.index.Record(contentHash, store.BlockTypeContent)
	}

	rec := &metadata.Record{Size: uint64(len(data)), Filename: filename, Mime: mime}
	copy(rec.ContentKey[:], contentKey)
	plainMeta, err := rec.Serialize()
	if err != nil {
		return crypto.Hash{}, err
	}

	masterKey, err := v.deriveMasterKey()
	if err != nil {
		return crypto.Hash{}, err
	}

	metaBlock, err := block.Build(block.TypeMetadata, 0, v.identity.DSAPublic, contentHash, masterKey, plainMeta)
	if err != nil {
		return crypto.Hash{}, fmt.Errorf("build metadata block: %w", err)
	}
	if err := metaBlock.Sign(v.identity.DSASecret); err != nil {
		return crypto.Hash{}, fmt.Errorf("sign metadata block: %w", err)
	}
	metaHash, err := metaBlock.Hash()
	if err != nil {
		return crypto.Hash{}, fmt.Errorf("hash metadata block: %w", err)
	}
	metaBytes, err := metaBlock.Serialize()
	if err != nil {
		return crypto.Hash{}, fmt.Errorf("serialize metadata block: %w", err)
	}
	if err := v.store.Put(metaHash, metaBytes); err != nil {
		return crypto.Hash{}, err
	}
	if v.index != nil {
		_ = v.index.Record(metaHash, store.BlockTypeMetadata)
	}

	v.log.WithHash(metaHash).Debug("stored file %q", filename)
	return metaHash, nil
}

// GetFile reverses AddFile: it loads the metadata block at hMeta,
// verifies both it and its paired content block, decrypts the
// content, checks its size against what the metadata promised, and
// writes it atomically to outPath.
func (v *Vault) GetFile(hMeta crypto.Hash, outPath string) error {
	plaintext, _, err := v.decryptFile(hMeta)
	if err != nil {
		return err
	}

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	tmp, err := os.CreateTemp(dir, "zault-get-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(plaintext); err != nil {
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
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	return nil
}

// ResolveFilename returns the filename recorded in the metadata block
// at hMeta, without writing anything to disk. The CLI calls this to
// decide an output path when the caller didn't give one explicitly.
func (v *Vault) ResolveFilename(hMeta crypto.Hash) (string, error) {
	_, rec, err := v.decryptFile(hMeta)
	if err != nil {
		return "", err
	}
	return rec.Filename, nil
}

// decryptFile recovers a file's plaintext and its metadata record
// without touching the filesystem beyond the store.
func (v *Vault) decryptFile(hMeta crypto.Hash) ([]byte, *metadata.Record, error) {
	metaBytes, err := v.store.Get(hMeta)
	if err != nil {
		return nil, nil, err
	}
	metaBlock, err := block.Deserialize(metaBytes)
	if err != nil {
		return nil, nil, err
	}
	if err := metaBlock.Verify(); err != nil {
		return nil, nil, err
	}

	masterKey, err := v.deriveMasterKey()
	if err != nil {
		return nil, nil, err
	}
	plainMeta, err := block.DecryptPayload(masterKey, metaBlock.Nonce, metaBlock.Data)
	if err != nil {
		if errors.Is(err, core.ErrAeadAuth) {
			return nil, nil, core.ErrWrongVaultMaster
		}
		return nil, nil, err
	}

	rec, err := metadata.Deserialize(plainMeta)
	if err != nil {
		crypto.Zeroize(plainMeta)
		return nil, nil, err
	}

	contentBytes, err := v.store.Get(metaBlock.PrevHash)
	if err != nil {
		return nil, nil, err
	}
	contentBlock, err := block.Deserialize(contentBytes)
	if err != nil {
		return nil, nil, err
	}
	if err := contentBlock.Verify(); err != nil {
		return nil, nil, err
	}

	plaintext, err := block.DecryptPayload(rec.ContentKey[:], contentBlock.Nonce, contentBlock.Data)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(plaintext)) != rec.Size {
		return nil, nil, fmt.Errorf("%w: decrypted size %d does not match declared size %d", core.ErrMetadataMalformed, len(plaintext), rec.Size)
	}

	return plaintext, rec, nil
}

// List enumerates every metadata block this vault's master key can
// decrypt. Blocks belonging to other vaults (or other block types)
// sharing the same storage tree are skipped silently, per §7, and so is
// any block that cannot be read, parsed, signature-verified, decrypted,
// or parsed as a metadata record. When the vault was opened with the
// index cache, List takes the set of metadata-typed hashes from it
// instead of walking the blocks directory, and walks the directory
// only if the index query fails; a metadata block that was never
// recorded in the index is not listed. Every hash the index returns is
// still verified and decrypted here, since the index is not a trust
// boundary.
func (v *Vault) List() ([]Entry, error) {
	masterKey, err := v.deriveMasterKey()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	visit := func(h crypto.Hash) bool {
		raw, err := v.store.Get(h)
		if err != nil {
			return true
		}
		b, err := block.Deserialize(raw)
		if err != nil {
			return true
		}
		if b.BlockType != block.TypeMetadata {
			return true
		}
		if err := b.Verify(); err != nil {
			return true
		}
		plainMeta, err := block.DecryptPayload(masterKey, b.Nonce, b.Data)
		if err != nil {
			return true // not ours, or corrupt; skip silently per spec
		}
		rec, err := metadata.Deserialize(plainMeta)
		if err != nil {
			return true
		}
		entries = append(entries, Entry{
			Hash:     h,
			Filename: rec.Filename,
			Mime:     rec.Mime,
			Size:     rec.Size,
		})
		return true
	}

	if v.index != nil {
		hashes, err := v.index.HashesOfType(store.BlockTypeMetadata)
		if err == nil {
			for _, h := range hashes {
				visit(h)
			}
			return entries, nil
		}
		v.log.Warn("index lookup failed, falling back to a full scan: %v", err)
	}

	iter, err := v.store.Iter()
	if err != nil {
		return nil, err
	}
	iter(visit)

	return entries, nil
}

// Verify loads the block at h and checks its signature only; it does
// not attempt decryption.
func (v *Vault) Verify(h crypto.Hash) error {
	raw, err := v.store.Get(h)
	if err != nil {
		return err
	}
	b, err := block.Deserialize(raw)
	if err != nil {
		return err
	}
	return b.Verify()
}
