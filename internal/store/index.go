package store

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/zault/zault/internal/core"
	"github.com/zault/zault/internal/crypto"
)

// Block type tags mirrored here so the index can record them without
// importing the block package (which itself may want to depend on
// store in the other direction for vault wiring).
const (
	BlockTypeContent    byte = 0x01
	BlockTypeMetadata   byte = 0x02
	BlockTypeShareToken byte = 0x03
)

// Index is an optional SQLite-backed sidecar cache mapping a block's
// hash to its type, so Vault.List can skip a full directory walk. It
// never stores plaintext,
// content keys, or any other sensitive material - only the hash
// (already public, since it is the filename) and the one type byte
// every block's cleartext header already carries.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (creating if needed) the SQLite index cache at
// path, typically <vault>/.index.db.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	hash TEXT PRIMARY KEY,
	block_type INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
	}

	return &Index{db: db}, nil
}

// Close closes the underlying database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Record upserts hash h's block type into the index.
func (idx *Index) Record(h crypto.Hash, blockType byte) error {
	_, err := idx.db.Exec(
		`INSERT INTO blocks (hash, block_type) VALUES (?, ?)
		 ON CONFLICT(hash) DO UPDATE SET block_type = excluded.block_type`,
		hex.EncodeToString(h[:]), blockType,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	return nil
}

// TypeOf returns the recorded block type for h, and whether it was
// found. A miss is not an error: the caller falls back to reading the
// block itself, since the index is only an accelerator.
func (idx *Index) TypeOf(h crypto.Hash) (blockType byte, found bool) {
	row := idx.db.QueryRow(`SELECT block_type FROM blocks WHERE hash = ?`, hex.EncodeToString(h[:]))
	var bt int
	if err := row.Scan(&bt); err != nil {
		return 0, false
	}
	return byte(bt), true
}

// HashesOfType returns every hash the index has recorded under
// blockType. Vault.List uses it in place of a directory walk whenever
// the vault was opened with the index; callers must still verify each block's
// signature, since the index is not a trust boundary.
func (idx *Index) HashesOfType(blockType byte) ([]crypto.Hash, error) {
	rows, err := idx.db.Query(`SELECT hash FROM blocks WHERE block_type = ?`, blockType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	defer rows.Close()

	var out []crypto.Hash
	for rows.Next() {
		var hexHash string
		if err := rows.Scan(&hexHash); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
		}
		raw, err := hex.DecodeString(hexHash)
		if err != nil || len(raw) != crypto.HashSize {
			continue
		}
		var h crypto.Hash
		copy(h[:], raw)
		out = append(out, h)
	}
	return out, rows.Err()
}
