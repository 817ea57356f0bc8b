// Package identity manages Zault's cryptographic identity: one
// ML-DSA-65 signing keypair and one ML-KEM-768 encapsulation keypair
// per vault, created once and never mutated. This is the most
// security-critical package in Zault - the vault master key (see
// internal/vault) is derived entirely from the DSA secret key held
// here, so the identity file is Zault's only secret.
package identity

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/zault/zault/internal/crypto"
)

// FormatVersion is the version byte identity.bin is tagged with.
const FormatVersion byte = 0x01

// Identity holds both keypairs for one vault. Callers own exactly one
// Identity per loaded vault; its secret-key fields must be zeroed with
// Zero before the Identity is released (Vault does this for you).
type Identity struct {
	Version byte

	DSAPublic *mldsa65.PublicKey
	DSASecret *mldsa65.PrivateKey
	KEMPublic *mlkem768.PublicKey
	KEMSecret *mlkem768.PrivateKey
}

// PublicIdentity is the shareable half of an Identity: the DSA and
// KEM public keys, used to verify a peer's signatures and to encrypt
// messages to them.
type PublicIdentity struct {
	DSAPublic *mldsa65.PublicKey
	KEMPublic *mlkem768.PublicKey
}

// Generate draws a fresh Identity from the OS CSPRNG.
func Generate() (*Identity, error) {
	dsaPub, dsaSec, err := crypto.GenerateDSAKeyPair(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	kemPub, kemSec, err := crypto.GenerateKEMKeyPair(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	return &Identity{
		Version:   FormatVersion,
		DSAPublic: dsaPub,
		DSASecret: dsaSec,
		KEMPublic: kemPub,
		KEMSecret: kemSec,
	}, nil
}

// FromSeed deterministically derives an Identity from a 32-byte seed.
// Two calls with the same seed, on any platform, produce bytewise
// identical key material - this is the contract §4.2 requires for
// interoperability.
//
// Construction: prk = HKDF-SHA3-256-Extract(salt="zault-id", ikm=seed).
// DSA and KEM keygen each consume an independent HKDF-SHA3-256-Expand
// stream keyed off prk, with info "dsa" and "kem" respectively, read
// through a counter-chained expand reader (see seededReader in
// seed.go) rather than a single fixed-length block, since circl's
// keygen entry points read from an io.Reader and do not publish how
// many bytes they consume.
func FromSeed(seed [32]byte) (*Identity, error) {
	prk := crypto.HKDFExtract([]byte("zault-id"), seed[:])

	dsaPub, dsaSec, err := crypto.GenerateDSAKeyPair(newSeededReader(prk, []byte("dsa")))
	if err != nil {
		return nil, fmt.Errorf("derive identity from seed: %w", err)
	}
	kemPub, kemSec, err := crypto.GenerateKEMKeyPair(newSeededReader(prk, []byte("kem")))
	if err != nil {
		return nil, fmt.Errorf("derive identity from seed: %w", err)
	}

	return &Identity{
		Version:   FormatVersion,
		DSAPublic: dsaPub,
		DSASecret: dsaSec,
		KEMPublic: kemPub,
		KEMSecret: kemSec,
	}, nil
}

// Public returns the shareable half of id.
func (id *Identity) Public() *PublicIdentity {
	return &PublicIdentity{DSAPublic: id.DSAPublic, KEMPublic: id.KEMPublic}
}

// Zero wipes id's secret-key material in place. Safe to call more
// than once; safe to call on an Identity whose secrets are already
// zeroed.
func (id *Identity) Zero() {
	if id == nil {
		return
	}
	zeroDSASecret(id.DSASecret)
	zeroKEMSecret(id.KEMSecret)
}

// Bytes serializes pub as dsa_pk ‖ kem_pk (3,136 bytes).
func (pub *PublicIdentity) Bytes() ([]byte, error) {
	dsaBytes, err := pub.DSAPublic.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal dsa public key: %w", err)
	}
	kemBytes, err := pub.KEMPublic.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal kem public key: %w", err)
	}
	out := make([]byte, 0, len(dsaBytes)+len(kemBytes))
	out = append(out, dsaBytes...)
	out = append(out, kemBytes...)
	return out, nil
}

// ParsePublicIdentity parses the dsa_pk ‖ kem_pk encoding Bytes
// produces.
func ParsePublicIdentity(data []byte) (*PublicIdentity, error) {
	want := crypto.DSAPublicKeySize + crypto.KEMPublicKeySize
	if len(data) != want {
		return nil, fmt.Errorf("parse public identity: want %d bytes, got %d", want, len(data))
	}

	dsaPub := new(mldsa65.PublicKey)
	if err := dsaPub.UnmarshalBinary(data[:crypto.DSAPublicKeySize]); err != nil {
		return nil, fmt.Errorf("unmarshal dsa public key: %w", err)
	}

	kemPub := new(mlkem768.PublicKey)
	if err := kemPub.Unpack(data[crypto.DSAPublicKeySize:]); err != nil {
		return nil, fmt.Errorf("unmarshal kem public key: %w", err)
	}

	return &PublicIdentity{DSAPublic: dsaPub, KEMPublic: kemPub}, nil
}

// zeroDSASecret overwrites sk in place. ML-DSA-65's private key is a
// plain value type (polynomial/byte-array fields, no independently
// heap-allocated secret state), so resetting it to its zero value
// wipes the key material it holds.
func zeroDSASecret(sk *mldsa65.PrivateKey) {
	if sk == nil {
		return
	}
	*sk = mldsa65.PrivateKey{}
}

// zeroKEMSecret overwrites sk in place, for the same reason as
// zeroDSASecret.
func zeroKEMSecret(sk *mlkem768.PrivateKey) {
	if sk == nil {
		return
	}
	*sk = mlkem768.PrivateKey{}
}

var _ io.Reader = (*seededReader)(nil)
