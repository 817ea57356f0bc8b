// Command zaultffi builds Zault's foreign surface: a flat, C-callable
// entry point (buildmode=c-shared) that exposes identity, message
// encryption, signing, hashing, and randomness to host languages
// without requiring a full vault. See internal/identity,
// internal/messaging, and internal/crypto for the operations this
// file only adapts to the C ABI.
package main

/*
#include <stddef.h>
*/
import "C"

import (
	"errors"
	"unsafe"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/zault/zault/internal/core"
	"github.com/zault/zault/internal/crypto"
	"github.com/zault/zault/internal/identity"
	"github.com/zault/zault/internal/messaging"
)

// Status codes, per the foreign surface's contract.
const (
	statusOK          C.int = 0
	statusInvalidArg  C.int = -1
	statusAlloc       C.int = -2
	statusCrypto      C.int = -4
	statusAuthFailed  C.int = -8
	publicIdentitySize     = crypto.DSAPublicKeySize + crypto.KEMPublicKeySize
)

func cBytes(ptr *C.uchar, n C.int) []byte {
	if ptr == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(n))
}

func writeOut(dst *C.uchar, cap C.int, src []byte) C.int {
	if dst == nil || int(cap) < len(src) {
		return statusInvalidArg
	}
	out := unsafe.Slice((*byte)(unsafe.Pointer(dst)), int(cap))
	copy(out, src)
	return statusOK
}

// ZaultIdentitySize returns identity.bin's exact byte size.
//
//export ZaultIdentitySize
func ZaultIdentitySize() C.int { return C.int(identity.FileSize) }

// ZaultPublicIdentitySize returns a serialized PublicIdentity's exact
// byte size.
//
//export ZaultPublicIdentitySize
func ZaultPublicIdentitySize() C.int { return C.int(publicIdentitySize) }

// ZaultSignatureSize returns an ML-DSA-65 signature's exact byte
// size.
//
//export ZaultSignatureSize
func ZaultSignatureSize() C.int { return C.int(crypto.DSASignatureSize) }

// ZaultDSAPublicKeySize returns an ML-DSA-65 public key's exact byte
// size.
//
//export ZaultDSAPublicKeySize
func ZaultDSAPublicKeySize() C.int { return C.int(crypto.DSAPublicKeySize) }

// ZaultKEMPublicKeySize returns an ML-KEM-768 public key's exact byte
// size.
//
//export ZaultKEMPublicKeySize
func ZaultKEMPublicKeySize() C.int { return C.int(crypto.KEMPublicKeySize) }

// ZaultMessageOverhead returns the number of bytes EncryptMessage
// adds beyond the plaintext.
//
//export ZaultMessageOverhead
func ZaultMessageOverhead() C.int { return C.int(messaging.Overhead) }

// ZaultIdentityGenerate draws a fresh identity and writes its
// ZaultIdentitySize()-byte serialized form into outIdentity.
//
//export ZaultIdentityGenerate
func ZaultIdentityGenerate(outIdentity *C.uchar, outIdentityCap C.int) C.int {
	id, err := identity.Generate()
	if err != nil {
		return statusCrypto
	}
	defer id.Zero()

	buf, err := id.Bytes()
	if err != nil {
		return statusCrypto
	}
	defer crypto.Zeroize(buf)

	return writeOut(outIdentity, outIdentityCap, buf)
}

// ZaultIdentityFromSeed deterministically derives an identity from a
// 32-byte seed.
//
//export ZaultIdentityFromSeed
func ZaultIdentityFromSeed(seed *C.uchar, seedLen C.int, outIdentity *C.uchar, outIdentityCap C.int) C.int {
	seedBytes := cBytes(seed, seedLen)
	if len(seedBytes) != 32 {
		return statusInvalidArg
	}
	var seedArr [32]byte
	copy(seedArr[:], seedBytes)

	id, err := identity.FromSeed(seedArr)
	if err != nil {
		return statusCrypto
	}
	defer id.Zero()

	buf, err := id.Bytes()
	if err != nil {
		return statusCrypto
	}
	defer crypto.Zeroize(buf)

	return writeOut(outIdentity, outIdentityCap, buf)
}

// ZaultIdentitySerializePublic extracts the public half of a
// serialized identity.
//
//export ZaultIdentitySerializePublic
func ZaultIdentitySerializePublic(identityBuf *C.uchar, identityLen C.int, outPublic *C.uchar, outPublicCap C.int) C.int {
	id, err := identity.Parse(cBytes(identityBuf, identityLen))
	if err != nil {
		return statusInvalidArg
	}
	pubBytes, err := id.Public().Bytes()
	if err != nil {
		return statusCrypto
	}
	return writeOut(outPublic, outPublicCap, pubBytes)
}

// ZaultParsePublicIdentityDSAPK extracts the DSA public key from a
// serialized PublicIdentity.
//
//export ZaultParsePublicIdentityDSAPK
func ZaultParsePublicIdentityDSAPK(publicBuf *C.uchar, publicLen C.int, outDSAPK *C.uchar, outCap C.int) C.int {
	data := cBytes(publicBuf, publicLen)
	if len(data) != publicIdentitySize {
		return statusInvalidArg
	}
	return writeOut(outDSAPK, outCap, data[:crypto.DSAPublicKeySize])
}

// ZaultParsePublicIdentityKEMPK extracts the KEM public key from a
// serialized PublicIdentity.
//
//export ZaultParsePublicIdentityKEMPK
func ZaultParsePublicIdentityKEMPK(publicBuf *C.uchar, publicLen C.int, outKEMPK *C.uchar, outCap C.int) C.int {
	data := cBytes(publicBuf, publicLen)
	if len(data) != publicIdentitySize {
		return statusInvalidArg
	}
	return writeOut(outKEMPK, outCap, data[crypto.DSAPublicKeySize:])
}

// ZaultEncryptMessage encrypts plaintext to a recipient's serialized
// ML-KEM-768 public key.
//
//export ZaultEncryptMessage
func ZaultEncryptMessage(recipientKEMPK *C.uchar, kemPKLen C.int, plaintext *C.uchar, ptLen C.int, outCiphertext *C.uchar, outCap C.int, outWritten *C.int) C.int {
	pkBytes := cBytes(recipientKEMPK, kemPKLen)
	if len(pkBytes) != crypto.KEMPublicKeySize {
		return statusInvalidArg
	}
	pk := new(mlkem768.PublicKey)
	if err := pk.Unpack(pkBytes); err != nil {
		return statusInvalidArg
	}

	ciphertext, err := messaging.EncryptMessage(pk, cBytes(plaintext, ptLen))
	if err != nil {
		return statusCrypto
	}
	if status := writeOut(outCiphertext, outCap, ciphertext); status != statusOK {
		return status
	}
	if outWritten != nil {
		*outWritten = C.int(len(ciphertext))
	}
	return statusOK
}

// ZaultDecryptMessage decrypts a message encrypted with
// ZaultEncryptMessage, under a serialized identity's KEM secret key.
//
//export ZaultDecryptMessage
func ZaultDecryptMessage(identityBuf *C.uchar, identityLen C.int, ciphertext *C.uchar, ctLen C.int, outPlaintext *C.uchar, outCap C.int, outWritten *C.int) C.int {
	id, err := identity.Parse(cBytes(identityBuf, identityLen))
	if err != nil {
		return statusInvalidArg
	}
	defer id.Zero()

	plaintext, err := messaging.DecryptMessage(id, cBytes(ciphertext, ctLen))
	if err != nil {
		if errors.Is(err, core.ErrAeadAuth) {
			return statusAuthFailed
		}
		return statusCrypto
	}
	if status := writeOut(outPlaintext, outCap, plaintext); status != statusOK {
		return status
	}
	if outWritten != nil {
		*outWritten = C.int(len(plaintext))
	}
	return statusOK
}

// ZaultSign signs data under a serialized identity's DSA secret key.
//
//export ZaultSign
func ZaultSign(identityBuf *C.uchar, identityLen C.int, data *C.uchar, dataLen C.int, outSig *C.uchar, outSigCap C.int) C.int {
	id, err := identity.Parse(cBytes(identityBuf, identityLen))
	if err != nil {
		return statusInvalidArg
	}
	defer id.Zero()

	sig, err := crypto.SignDSA(id.DSASecret, cBytes(data, dataLen))
	if err != nil {
		return statusCrypto
	}
	return writeOut(outSig, outSigCap, sig)
}

// ZaultVerify checks an ML-DSA-65 signature under a serialized DSA
// public key, returning statusOK or statusAuthFailed, or
// statusInvalidArg for a malformed public key.
//
//export ZaultVerify
func ZaultVerify(dsaPK *C.uchar, pkLen C.int, data *C.uchar, dataLen C.int, sig *C.uchar, sigLen C.int) C.int {
	pkBytes := cBytes(dsaPK, pkLen)
	if len(pkBytes) != crypto.DSAPublicKeySize {
		return statusInvalidArg
	}
	pk := new(mldsa65.PublicKey)
	if err := pk.UnmarshalBinary(pkBytes); err != nil {
		return statusInvalidArg
	}
	if crypto.VerifyDSA(pk, cBytes(data, dataLen), cBytes(sig, sigLen)) {
		return statusOK
	}
	return statusAuthFailed
}

// ZaultSHA3_256 writes the 32-byte SHA3-256 digest of data into
// outHash.
//
//export ZaultSHA3_256
func ZaultSHA3_256(data *C.uchar, dataLen C.int, outHash *C.uchar, outHashCap C.int) C.int {
	h := crypto.SHA3(cBytes(data, dataLen))
	return writeOut(outHash, outHashCap, h[:])
}

// ZaultRandomBytes fills outBuf with n bytes from the OS CSPRNG.
//
//export ZaultRandomBytes
func ZaultRandomBytes(outBuf *C.uchar, n C.int) C.int {
	if n <= 0 {
		return statusInvalidArg
	}
	buf, err := crypto.RandomBytes(int(n))
	if err != nil {
		return statusCrypto
	}
	return writeOut(outBuf, n, buf)
}

// ZaultGenerateGroupKey writes a fresh 32-byte group key into outKey.
//
//export ZaultGenerateGroupKey
func ZaultGenerateGroupKey(outKey *C.uchar, outKeyCap C.int) C.int {
	key, err := messaging.GenerateGroupKey()
	if err != nil {
		return statusCrypto
	}
	defer crypto.Zeroize(key[:])
	return writeOut(outKey, outKeyCap, key[:])
}

// ZaultEncryptWithKey AEAD-seals plaintext under a shared symmetric
// key.
//
//export ZaultEncryptWithKey
func ZaultEncryptWithKey(key *C.uchar, keyLen C.int, plaintext *C.uchar, ptLen C.int, outCiphertext *C.uchar, outCap C.int, outWritten *C.int) C.int {
	keyBytes := cBytes(key, keyLen)
	if len(keyBytes) != crypto.SymmetricKeySize {
		return statusInvalidArg
	}
	ciphertext, err := messaging.EncryptWithKey(keyBytes, cBytes(plaintext, ptLen))
	if err != nil {
		return statusCrypto
	}
	if status := writeOut(outCiphertext, outCap, ciphertext); status != statusOK {
		return status
	}
	if outWritten != nil {
		*outWritten = C.int(len(ciphertext))
	}
	return statusOK
}

// ZaultDecryptWithKey reverses ZaultEncryptWithKey.
//
//export ZaultDecryptWithKey
func ZaultDecryptWithKey(key *C.uchar, keyLen C.int, ciphertext *C.uchar, ctLen C.int, outPlaintext *C.uchar, outCap C.int, outWritten *C.int) C.int {
	keyBytes := cBytes(key, keyLen)
	if len(keyBytes) != crypto.SymmetricKeySize {
		return statusInvalidArg
	}
	plaintext, err := messaging.DecryptWithKey(keyBytes, cBytes(ciphertext, ctLen))
	if err != nil {
		if errors.Is(err, core.ErrAeadAuth) {
			return statusAuthFailed
		}
		return statusCrypto
	}
	if status := writeOut(outPlaintext, outCap, plaintext); status != statusOK {
		return status
	}
	if outWritten != nil {
		*outWritten = C.int(len(plaintext))
	}
	return statusOK
}

func main() {
	// Required for buildmode=c-shared/c-archive; the library is
	// driven entirely through the exported functions above.
}
