package identity

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/zault/zault/internal/core"
	"github.com/zault/zault/internal/crypto"
)

// FileSize is the exact on-disk size of identity.bin: version(1) ‖
// dsa_pk(1952) ‖ dsa_sk(4032) ‖ kem_pk(1184) ‖ kem_sk(2400).
const FileSize = 1 + crypto.DSAPublicKeySize + crypto.DSAPrivateKeySize +
	crypto.KEMPublicKeySize + crypto.KEMPrivateKeySize

// Bytes serializes id into identity.bin's fixed layout. The foreign
// surface uses this directly to hand a caller-owned buffer of
// identity bytes across the C ABI instead of a file path; Save wraps
// it with the atomic write-to-temp-then-rename protocol.
func (id *Identity) Bytes() ([]byte, error) {
	dsaPubBytes, err := id.DSAPublic.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal dsa public key: %w", err)
	}
	dsaSecBytes, err := id.DSASecret.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal dsa secret key: %w", err)
	}
	kemPubBytes, err := id.KEMPublic.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal kem public key: %w", err)
	}
	kemSecBytes, err := id.KEMSecret.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal kem secret key: %w", err)
	}

	buf := make([]byte, 0, FileSize)
	buf = append(buf, id.Version)
	buf = append(buf, dsaPubBytes...)
	buf = append(buf, dsaSecBytes...)
	buf = append(buf, kemPubBytes...)
	buf = append(buf, kemSecBytes...)
	return buf, nil
}

// Parse reconstructs an Identity from bytes produced by Bytes/Save.
// Returns core.ErrIdentityCorrupt if the size or version byte does
// not match what this build of Zault expects.
func Parse(data []byte) (*Identity, error) {
	if len(data) != FileSize {
		return nil, fmt.Errorf("%w: identity data is %d bytes, want %d", core.ErrIdentityCorrupt, len(data), FileSize)
	}
	if data[0] != FormatVersion {
		return nil, fmt.Errorf("%w: unknown identity format version %d", core.ErrIdentityCorrupt, data[0])
	}

	off := 1
	dsaPub := new(mldsa65.PublicKey)
	if err := dsaPub.UnmarshalBinary(data[off : off+crypto.DSAPublicKeySize]); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIdentityCorrupt, err)
	}
	off += crypto.DSAPublicKeySize

	dsaSec := new(mldsa65.PrivateKey)
	if err := dsaSec.UnmarshalBinary(data[off : off+crypto.DSAPrivateKeySize]); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIdentityCorrupt, err)
	}
	off += crypto.DSAPrivateKeySize

	kemPub := new(mlkem768.PublicKey)
	if err := kemPub.Unpack(data[off : off+crypto.KEMPublicKeySize]); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIdentityCorrupt, err)
	}
	off += crypto.KEMPublicKeySize

	kemSec := new(mlkem768.PrivateKey)
	if err := kemSec.Unpack(data[off : off+crypto.KEMPrivateKeySize]); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIdentityCorrupt, err)
	}

	return &Identity{
		Version:   data[0],
		DSAPublic: dsaPub,
		DSASecret: dsaSec,
		KEMPublic: kemPub,
		KEMSecret: kemSec,
	}, nil
}

// Save writes id to path as identity.bin's fixed layout, atomically:
// the file is written to a temp path in the same directory, synced,
// then renamed into place so a crash never leaves a half-written
// identity file.
func (id *Identity) Save(path string) error {
	buf, err := id.Bytes()
	if err != nil {
		return err
	}
	defer crypto.Zeroize(buf)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}

	tmp, err := os.CreateTemp(dir, "identity-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	if _, err := tmp.Write(buf); err != nil {
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
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	return nil
}

// Load reads an identity file written by Save.
func Load(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIo, err)
	}
	defer crypto.Zeroize(data)
	return Parse(data)
}
