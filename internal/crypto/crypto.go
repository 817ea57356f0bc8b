// Package crypto wraps the NIST-standardized primitives Zault is built
// on: ML-DSA-65 signatures (FIPS 204), ML-KEM-768 key encapsulation
// (FIPS 203), ChaCha20-Poly1305 AEAD, SHA3-256, and HKDF-SHA3-256. It
// has no notion of blocks, vaults, or files - callers above it own all
// framing decisions.
package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
	"runtime"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/zault/zault/internal/core"
)

// Byte sizes of every fixed-width field the spec's block framing
// depends on. Callers should use these instead of re-deriving them
// from circl, so a vendored circl upgrade that changed an internal
// constant would be caught by a size mismatch rather than silently
// reframing blocks.
const (
	DSAPublicKeySize  = mldsa65.PublicKeySize
	DSAPrivateKeySize = mldsa65.PrivateKeySize
	DSASignatureSize  = mldsa65.SignatureSize

	KEMPublicKeySize  = mlkem768.PublicKeySize
	KEMPrivateKeySize = mlkem768.PrivateKeySize
	KEMCiphertextSize = mlkem768.CiphertextSize

	SharedSecretSize = mlkem768.SharedKeySize
	SymmetricKeySize = 32
	NonceSize        = chacha20poly1305.NonceSize
	AEADTagSize      = chacha20poly1305.Overhead
	HashSize         = 32

	// kemEncapSeedSize is the size of the random seed ML-KEM-768
	// encapsulation consumes to draw its ephemeral randomness.
	kemEncapSeedSize = 32
)

// Hash is a SHA3-256 digest.
type Hash [HashSize]byte

// SHA3 computes the SHA3-256 digest of data.
func SHA3(data []byte) Hash {
	return Hash(sha3.Sum256(data))
}

// HKDFExtract runs the extract phase of HKDF-SHA3-256: a
// pseudorandom key is produced from (possibly low-entropy) input key
// material and a salt.
func HKDFExtract(salt, ikm []byte) []byte {
	return hkdf.Extract(sha3.New256, ikm, salt)
}

// HKDFExpand runs the expand phase of HKDF-SHA3-256, producing
// length bytes of output key material bound to info.
func HKDFExpand(prk, info []byte, length int) ([]byte, error) {
	r := hkdf.Expand(sha3.New256, prk, info)
	okm := make([]byte, length)
	if _, err := io.ReadFull(r, okm); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return okm, nil
}

// RandomBytes draws n bytes from the OS CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("csprng: %w", err)
	}
	return buf, nil
}

// Zeroize overwrites buf with zeros. The runtime.KeepAlive call stops
// the compiler from eliding the store as dead code once buf is no
// longer read (see golang/go#33325); without it, a sufficiently
// aggressive optimizer pass is free to delete the loop entirely.
func Zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}

// Seal encrypts plaintext with ChaCha20-Poly1305 under key and nonce,
// returning ciphertext with the 16-byte Poly1305 tag appended.
func Seal(key, nonce, aad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("aead init: %w", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("aead seal: bad nonce size %d", len(nonce))
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// Open decrypts ciphertext (as produced by Seal) under key and nonce.
// Returns core.ErrAeadAuth if the tag does not verify.
func Open(key, nonce, aad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("aead init: %w", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("aead open: bad nonce size %d", len(nonce))
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, core.ErrAeadAuth
	}
	return plaintext, nil
}

// GenerateDSAKeyPair draws a fresh ML-DSA-65 keypair from r.
func GenerateDSAKeyPair(r io.Reader) (*mldsa65.PublicKey, *mldsa65.PrivateKey, error) {
	pub, priv, err := mldsa65.GenerateKey(r)
	if err != nil {
		return nil, nil, fmt.Errorf("ml-dsa-65 keygen: %w", err)
	}
	return pub, priv, nil
}

// SignDSA produces an ML-DSA-65 signature over msg under sk. Signing
// is deterministic; verification accepts both deterministic and
// randomized signatures, so this is an implementation choice, not a
// protocol requirement.
func SignDSA(sk *mldsa65.PrivateKey, msg []byte) ([]byte, error) {
	sig := make([]byte, DSASignatureSize)
	if err := mldsa65.SignTo(sk, msg, nil, false, sig); err != nil {
		return nil, fmt.Errorf("ml-dsa-65 sign: %w", err)
	}
	return sig, nil
}

// VerifyDSA checks an ML-DSA-65 signature over msg under pk.
func VerifyDSA(pk *mldsa65.PublicKey, msg, sig []byte) bool {
	return mldsa65.Verify(pk, msg, nil, sig)
}

// GenerateKEMKeyPair draws a fresh ML-KEM-768 keypair from r.
func GenerateKEMKeyPair(r io.Reader) (*mlkem768.PublicKey, *mlkem768.PrivateKey, error) {
	pub, priv, err := mlkem768.GenerateKeyPair(r)
	if err != nil {
		return nil, nil, fmt.Errorf("ml-kem-768 keygen: %w", err)
	}
	return pub, priv, nil
}

// Encapsulate draws a fresh ML-KEM-768 ciphertext and shared secret
// for recipientPub.
func Encapsulate(recipientPub *mlkem768.PublicKey) (ciphertext, sharedSecret []byte, err error) {
	seed, err := RandomBytes(kemEncapSeedSize)
	if err != nil {
		return nil, nil, err
	}
	ct := make([]byte, KEMCiphertextSize)
	ss := make([]byte, SharedSecretSize)
	recipientPub.EncapsulateTo(ct, ss, seed)
	Zeroize(seed)
	return ct, ss, nil
}

// Decapsulate recovers the shared secret ML-KEM-768 ciphertext ct
// was encapsulated with, under sk.
func Decapsulate(sk *mlkem768.PrivateKey, ct []byte) ([]byte, error) {
	if len(ct) != KEMCiphertextSize {
		return nil, fmt.Errorf("ml-kem-768 decapsulate: bad ciphertext size %d", len(ct))
	}
	ss := make([]byte, SharedSecretSize)
	sk.DecapsulateTo(ss, ct)
	return ss, nil
}
