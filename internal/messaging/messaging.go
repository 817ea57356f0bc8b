// Package messaging implements Zault's peer-to-peer and group message
// encryption: KEM-then-AEAD for one recipient's public key, and plain
// AEAD for a shared symmetric group key. Neither path touches the
// vault or the block store - these are primitives the foreign surface
// exposes directly to host languages for the chat front-end the core
// does not itself implement.
package messaging

import (
	"fmt"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	"github.com/zault/zault/internal/core"
	"github.com/zault/zault/internal/crypto"
	"github.com/zault/zault/internal/identity"
)

// Overhead is the number of bytes EncryptMessage adds beyond the
// plaintext: the KEM ciphertext, the AEAD nonce, and the Poly1305
// tag.
const Overhead = crypto.KEMCiphertextSize + crypto.NonceSize + crypto.AEADTagSize

// EncryptMessage encrypts plaintext to recipientKEMPub: it
// encapsulates a fresh shared secret under the recipient's KEM public
// key, then AEAD-seals plaintext under that shared secret with a
// fresh nonce. The wire format is
// kem_ciphertext(1088) ‖ nonce(12) ‖ aead_ciphertext_with_tag.
func EncryptMessage(recipientKEMPub *mlkem768.PublicKey, plaintext []byte) ([]byte, error) {
	kemCiphertext, sharedSecret, err := crypto.Encapsulate(recipientKEMPub)
	if err != nil {
		return nil, fmt.Errorf("encapsulate: %w", err)
	}
	defer crypto.Zeroize(sharedSecret)

	nonce, err := crypto.RandomBytes(crypto.NonceSize)
	if err != nil {
		return nil, err
	}

	aeadCiphertext, err := crypto.Seal(sharedSecret, nonce, nil, plaintext)
	if err != nil {
		return nil, fmt.Errorf("seal message: %w", err)
	}

	out := make([]byte, 0, len(kemCiphertext)+len(nonce)+len(aeadCiphertext))
	out = append(out, kemCiphertext...)
	out = append(out, nonce...)
	out = append(out, aeadCiphertext...)
	return out, nil
}

// DecryptMessage reverses EncryptMessage under recipient's KEM secret
// key. Returns core.ErrAeadAuth if ciphertext was not addressed to
// recipient, or was tampered with.
func DecryptMessage(recipient *identity.Identity, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < crypto.KEMCiphertextSize+crypto.NonceSize {
		return nil, fmt.Errorf("%w: message ciphertext too short", core.ErrBlockMalformed)
	}

	kemCiphertext := ciphertext[:crypto.KEMCiphertextSize]
	nonce := ciphertext[crypto.KEMCiphertextSize : crypto.KEMCiphertextSize+crypto.NonceSize]
	aeadCiphertext := ciphertext[crypto.KEMCiphertextSize+crypto.NonceSize:]

	sharedSecret, err := crypto.Decapsulate(recipient.KEMSecret, kemCiphertext)
	if err != nil {
		return nil, fmt.Errorf("decapsulate: %w", err)
	}
	defer crypto.Zeroize(sharedSecret)

	return crypto.Open(sharedSecret, nonce, nil, aeadCiphertext)
}

// GenerateGroupKey draws a fresh 32-byte symmetric key for
// EncryptWithKey/DecryptWithKey, suitable for sharing among a group
// via the group-messaging key-rotation protocol the core does not
// itself implement.
func GenerateGroupKey() ([crypto.SymmetricKeySize]byte, error) {
	var key [crypto.SymmetricKeySize]byte
	buf, err := crypto.RandomBytes(crypto.SymmetricKeySize)
	if err != nil {
		return key, err
	}
	copy(key[:], buf)
	crypto.Zeroize(buf)
	return key, nil
}

// EncryptWithKey AEAD-seals plaintext under a shared symmetric key
// (as produced by GenerateGroupKey), with a fresh nonce prepended:
// nonce(12) ‖ aead_ciphertext_with_tag.
func EncryptWithKey(key []byte, plaintext []byte) ([]byte, error) {
	nonce, err := crypto.RandomBytes(crypto.NonceSize)
	if err != nil {
		return nil, err
	}
	aeadCiphertext, err := crypto.Seal(key, nonce, nil, plaintext)
	if err != nil {
		return nil, fmt.Errorf("seal message: %w", err)
	}
	out := make([]byte, 0, len(nonce)+len(aeadCiphertext))
	out = append(out, nonce...)
	out = append(out, aeadCiphertext...)
	return out, nil
}

// DecryptWithKey reverses EncryptWithKey.
func DecryptWithKey(key []byte, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < crypto.NonceSize {
		return nil, fmt.Errorf("%w: message ciphertext too short", core.ErrBlockMalformed)
	}
	nonce := ciphertext[:crypto.NonceSize]
	aeadCiphertext := ciphertext[crypto.NonceSize:]
	return crypto.Open(key, nonce, nil, aeadCiphertext)
}
