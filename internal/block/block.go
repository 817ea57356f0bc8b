// Package block implements Zault's signed, content-addressed block
// format: the fixed-width-plus-one-length-prefixed-field framing that
// every content, metadata, and share-token block shares, and the
// encrypt/sign/hash pipeline a vault drives to turn plaintext into a
// storable artifact.
package block

import (
	"encoding/binary"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/zault/zault/internal/core"
	"github.com/zault/zault/internal/crypto"
)

// Type tags the kind of payload a block carries.
type Type byte

const (
	TypeContent    Type = 0x01
	TypeMetadata   Type = 0x02
	TypeShareToken Type = 0x03
)

// FormatVersion is the only block framing version this build writes
// or accepts.
const FormatVersion byte = 0x01

const (
	authorFieldSize    = crypto.DSAPublicKeySize
	nonceFieldSize     = crypto.NonceSize
	prevHashFieldSize  = crypto.HashSize
	signatureFieldSize = crypto.DSASignatureSize

	// headerSize is every fixed-width field up to and including
	// data_len: version(1) + block_type(1) + timestamp(8) +
	// author(1952) + nonce(12) + prev_hash(32) + data_len(4).
	headerSize = 1 + 1 + 8 + authorFieldSize + nonceFieldSize + prevHashFieldSize + 4

	// MinSize is the smallest a serialized block can be: headerSize
	// plus signature, with an empty data field.
	MinSize = headerSize + signatureFieldSize

	// MaxDataLen bounds data_len: 100 MiB of plaintext plus the
	// AEAD tag.
	MaxDataLen = 100*1024*1024 + crypto.AEADTagSize
)

// ZeroHash is the 32 zero bytes used as prev_hash for blocks with no
// predecessor.
var ZeroHash crypto.Hash

// Block is the canonical in-memory record a signer produces and a
// verifier consumes. Fields are populated in the order Build and Sign
// enforce; constructing one by hand and skipping that order produces
// a block whose hash disagrees with its signed contents.
type Block struct {
	Version   byte
	BlockType Type
	Timestamp uint64
	Author    *mldsa65.PublicKey
	Nonce     [crypto.NonceSize]byte
	PrevHash  crypto.Hash
	Data      []byte // AEAD ciphertext including the Poly1305 tag
	Signature []byte
}

// EncryptPayload draws a fresh nonce from the CSPRNG and seals
// plaintext under key with no associated data, per §4.3.
func EncryptPayload(key, plaintext []byte) (nonce [crypto.NonceSize]byte, ciphertext []byte, err error) {
	n, err := crypto.RandomBytes(crypto.NonceSize)
	if err != nil {
		return nonce, nil, fmt.Errorf("draw nonce: %w", err)
	}
	copy(nonce[:], n)

	ciphertext, err = crypto.Seal(key, nonce[:], nil, plaintext)
	if err != nil {
		return nonce, nil, fmt.Errorf("encrypt payload: %w", err)
	}
	return nonce, ciphertext, nil
}

// DecryptPayload opens a block's data field under key and nonce.
// Returns core.ErrAeadAuth on tag mismatch.
func DecryptPayload(key []byte, nonce [crypto.NonceSize]byte, ciphertext []byte) ([]byte, error) {
	return crypto.Open(key, nonce[:], nil, ciphertext)
}

// Build assembles an unsigned block: it encrypts plaintext under
// (key, a freshly drawn nonce), then populates every field except
// Signature. Callers MUST call Sign next, before computing Hash.
func Build(blockType Type, timestamp uint64, author *mldsa65.PublicKey, prevHash crypto.Hash, key, plaintext []byte) (*Block, error) {
	nonce, ciphertext, err := EncryptPayload(key, plaintext)
	if err != nil {
		return nil, err
	}

	return &Block{
		Version:   FormatVersion,
		BlockType: blockType,
		Timestamp: timestamp,
		Author:    author,
		Nonce:     nonce,
		PrevHash:  prevHash,
		Data:      ciphertext,
	}, nil
}

// signedPrefix returns the exact byte sequence ML-DSA signs and
// verifies over: every field except Signature, in framing order.
func (b *Block) signedPrefix() ([]byte, error) {
	if b.Author == nil {
		return nil, fmt.Errorf("%w: block has no author", core.ErrBlockMalformed)
	}
	authorBytes, err := b.Author.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal author key: %w", err)
	}
	if len(authorBytes) != authorFieldSize {
		return nil, fmt.Errorf("%w: author key is %d bytes, want %d", core.ErrBlockMalformed, len(authorBytes), authorFieldSize)
	}
	if len(b.Data) > MaxDataLen {
		return nil, fmt.Errorf("%w: data field is %d bytes, exceeds %d", core.ErrBlockMalformed, len(b.Data), MaxDataLen)
	}

	out := make([]byte, 0, headerSize+len(b.Data))
	out = append(out, b.Version, byte(b.BlockType))

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], b.Timestamp)
	out = append(out, ts[:]...)

	out = append(out, authorBytes...)
	out = append(out, b.Nonce[:]...)
	out = append(out, b.PrevHash[:]...)

	var dataLen [4]byte
	binary.BigEndian.PutUint32(dataLen[:], uint32(len(b.Data)))
	out = append(out, dataLen[:]...)

	out = append(out, b.Data...)
	return out, nil
}

// Sign computes the ML-DSA-65 signature over b's pre-signature bytes
// and stores it in b.Signature.
func (b *Block) Sign(sk *mldsa65.PrivateKey) error {
	prefix, err := b.signedPrefix()
	if err != nil {
		return err
	}
	sig, err := crypto.SignDSA(sk, prefix)
	if err != nil {
		return fmt.Errorf("sign block: %w", err)
	}
	b.Signature = sig
	return nil
}

// Verify recomputes b's pre-signature bytes and checks b.Signature
// under b.Author.
func (b *Block) Verify() error {
	if len(b.Signature) != signatureFieldSize {
		return fmt.Errorf("%w: signature is %d bytes, want %d", core.ErrBlockMalformed, len(b.Signature), signatureFieldSize)
	}
	prefix, err := b.signedPrefix()
	if err != nil {
		return err
	}
	if !crypto.VerifyDSA(b.Author, prefix, b.Signature) {
		return core.ErrSignatureInvalid
	}
	return nil
}

// Hash computes SHA3-256 over b's full serialized form, signature
// included. This is the hash under which the block is stored;
// resigning the same fields produces a different hash.
func (b *Block) Hash() (crypto.Hash, error) {
	serialized, err := b.Serialize()
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.SHA3(serialized), nil
}

// Serialize encodes b in framing order: fixed-width fields, a
// length-prefixed data field, then the fixed-width signature.
func (b *Block) Serialize() ([]byte, error) {
	prefix, err := b.signedPrefix()
	if err != nil {
		return nil, err
	}
	if len(b.Signature) != signatureFieldSize {
		return nil, fmt.Errorf("%w: signature is %d bytes, want %d", core.ErrBlockMalformed, len(b.Signature), signatureFieldSize)
	}
	out := make([]byte, 0, len(prefix)+signatureFieldSize)
	out = append(out, prefix...)
	out = append(out, b.Signature...)
	return out, nil
}

// Deserialize parses a block previously produced by Serialize. It
// performs no signature verification; call Verify separately.
func Deserialize(data []byte) (*Block, error) {
	if len(data) < MinSize {
		return nil, fmt.Errorf("%w: block is %d bytes, minimum is %d", core.ErrBlockMalformed, len(data), MinSize)
	}

	off := 0
	version := data[off]
	off++
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: unknown block version %d", core.ErrBlockMalformed, version)
	}

	blockType := Type(data[off])
	off++
	switch blockType {
	case TypeContent, TypeMetadata, TypeShareToken:
	default:
		return nil, fmt.Errorf("%w: unknown block type %d", core.ErrBlockMalformed, blockType)
	}

	timestamp := binary.BigEndian.Uint64(data[off : off+8])
	off += 8

	author := new(mldsa65.PublicKey)
	if err := author.UnmarshalBinary(data[off : off+authorFieldSize]); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBlockMalformed, err)
	}
	off += authorFieldSize

	var nonce [crypto.NonceSize]byte
	copy(nonce[:], data[off:off+nonceFieldSize])
	off += nonceFieldSize

	var prevHash crypto.Hash
	copy(prevHash[:], data[off:off+prevHashFieldSize])
	off += prevHashFieldSize

	dataLen := binary.BigEndian.Uint32(data[off : off+4])
	off += 4
	if dataLen > MaxDataLen {
		return nil, fmt.Errorf("%w: data_len %d exceeds maximum %d", core.ErrBlockMalformed, dataLen, MaxDataLen)
	}
	if off+int(dataLen)+signatureFieldSize != len(data) {
		return nil, fmt.Errorf("%w: declared data_len %d is inconsistent with block size %d", core.ErrBlockMalformed, dataLen, len(data))
	}

	payload := make([]byte, dataLen)
	copy(payload, data[off:off+int(dataLen)])
	off += int(dataLen)

	signature := make([]byte, signatureFieldSize)
	copy(signature, data[off:off+signatureFieldSize])

	return &Block{
		Version:   version,
		BlockType: blockType,
		Timestamp: timestamp,
		Author:    author,
		Nonce:     nonce,
		PrevHash:  prevHash,
		Data:      payload,
		Signature: signature,
	}, nil
}
