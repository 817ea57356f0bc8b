// Package core defines the error kinds shared across Zault's packages.
package core

import "errors"

// Error kinds the core surfaces to callers. No error is caught and
// swallowed inside the core except where Vault.List documents
// otherwise.
var (
	// ErrIo marks filesystem failures surfaced from the store and
	// identity layers. Callers unwrap with errors.Is.
	ErrIo = errors.New("io error")

	// ErrIdentityCorrupt is returned when identity.bin has the wrong
	// version byte or the wrong length for one of its fields.
	ErrIdentityCorrupt = errors.New("identity corrupt")

	// ErrNotFound is returned when a requested hash has no stored
	// block.
	ErrNotFound = errors.New("block not found")

	// ErrBlockMalformed is returned when a block's bytes have
	// inconsistent length prefixes or an unknown version/type.
	ErrBlockMalformed = errors.New("block malformed")

	// ErrSignatureInvalid is returned when ML-DSA verification fails.
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrAeadAuth is returned when a ChaCha20-Poly1305 tag is
	// rejected.
	ErrAeadAuth = errors.New("aead authentication failed")

	// ErrMetadataMalformed is returned when a decrypted metadata
	// record is ill-formed (bad length prefixes, oversized fields).
	ErrMetadataMalformed = errors.New("metadata malformed")

	// ErrFileTooLarge is returned when add_file's input exceeds the
	// 100 MiB cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrHashCollision is returned when the block store finds a file
	// at the target hash's path whose contents differ from what is
	// being put. On SHA3-256 this means filesystem corruption, not a
	// true hash collision.
	ErrHashCollision = errors.New("hash collision")

	// ErrWrongVaultMaster is what Vault.GetFile reports when a
	// metadata block fails to decrypt under the vault's own K_v - it
	// belongs to a different identity sharing the same blocks tree.
	ErrWrongVaultMaster = errors.New("wrong vault master key")
)
