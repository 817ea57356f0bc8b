package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"testing"
	"unsafe"
)

// cBuf allocates a C-owned zeroed buffer of n bytes; callers must free it.
func cBuf(n int) *C.uchar {
	return (*C.uchar)(C.calloc(C.size_t(n), 1))
}

func goBytes(p *C.uchar, n int) []byte {
	return C.GoBytes(unsafe.Pointer(p), C.int(n))
}

func TestIdentityGenerateAndSerializePublic(t *testing.T) {
	idBuf := cBuf(int(ZaultIdentitySize()))
	defer C.free(unsafe.Pointer(idBuf))

	if status := ZaultIdentityGenerate(idBuf, ZaultIdentitySize()); status != statusOK {
		t.Fatalf("ZaultIdentityGenerate returned %d", status)
	}

	pubBuf := cBuf(int(ZaultPublicIdentitySize()))
	defer C.free(unsafe.Pointer(pubBuf))

	if status := ZaultIdentitySerializePublic(idBuf, ZaultIdentitySize(), pubBuf, ZaultPublicIdentitySize()); status != statusOK {
		t.Fatalf("ZaultIdentitySerializePublic returned %d", status)
	}

	dsaPK := cBuf(int(ZaultDSAPublicKeySize()))
	defer C.free(unsafe.Pointer(dsaPK))
	if status := ZaultParsePublicIdentityDSAPK(pubBuf, ZaultPublicIdentitySize(), dsaPK, ZaultDSAPublicKeySize()); status != statusOK {
		t.Fatalf("ZaultParsePublicIdentityDSAPK returned %d", status)
	}

	kemPK := cBuf(int(ZaultKEMPublicKeySize()))
	defer C.free(unsafe.Pointer(kemPK))
	if status := ZaultParsePublicIdentityKEMPK(pubBuf, ZaultPublicIdentitySize(), kemPK, ZaultKEMPublicKeySize()); status != statusOK {
		t.Fatalf("ZaultParsePublicIdentityKEMPK returned %d", status)
	}
}

func TestIdentityFromSeedIsDeterministic(t *testing.T) {
	var seedBytes [32]byte
	for i := range seedBytes {
		seedBytes[i] = byte(i)
	}
	seed := (*C.uchar)(C.CBytes(seedBytes[:]))
	defer C.free(unsafe.Pointer(seed))

	idA := cBuf(int(ZaultIdentitySize()))
	defer C.free(unsafe.Pointer(idA))
	idB := cBuf(int(ZaultIdentitySize()))
	defer C.free(unsafe.Pointer(idB))

	if status := ZaultIdentityFromSeed(seed, 32, idA, ZaultIdentitySize()); status != statusOK {
		t.Fatalf("ZaultIdentityFromSeed returned %d", status)
	}
	if status := ZaultIdentityFromSeed(seed, 32, idB, ZaultIdentitySize()); status != statusOK {
		t.Fatalf("ZaultIdentityFromSeed returned %d", status)
	}

	a := goBytes(idA, int(ZaultIdentitySize()))
	b := goBytes(idB, int(ZaultIdentitySize()))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("FromSeed is not deterministic: byte %d differs", i)
		}
	}
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	idBuf := cBuf(int(ZaultIdentitySize()))
	defer C.free(unsafe.Pointer(idBuf))
	if status := ZaultIdentityGenerate(idBuf, ZaultIdentitySize()); status != statusOK {
		t.Fatalf("ZaultIdentityGenerate returned %d", status)
	}

	msg := []byte("sign me")
	msgBuf := (*C.uchar)(C.CBytes(msg))
	defer C.free(unsafe.Pointer(msgBuf))

	sig := cBuf(int(ZaultSignatureSize()))
	defer C.free(unsafe.Pointer(sig))
	if status := ZaultSign(idBuf, ZaultIdentitySize(), msgBuf, C.int(len(msg)), sig, ZaultSignatureSize()); status != statusOK {
		t.Fatalf("ZaultSign returned %d", status)
	}

	pubBuf := cBuf(int(ZaultPublicIdentitySize()))
	defer C.free(unsafe.Pointer(pubBuf))
	ZaultIdentitySerializePublic(idBuf, ZaultIdentitySize(), pubBuf, ZaultPublicIdentitySize())

	dsaPK := cBuf(int(ZaultDSAPublicKeySize()))
	defer C.free(unsafe.Pointer(dsaPK))
	ZaultParsePublicIdentityDSAPK(pubBuf, ZaultPublicIdentitySize(), dsaPK, ZaultDSAPublicKeySize())

	if status := ZaultVerify(dsaPK, ZaultDSAPublicKeySize(), msgBuf, C.int(len(msg)), sig, ZaultSignatureSize()); status != statusOK {
		t.Fatalf("ZaultVerify returned %d, want statusOK", status)
	}

	tampered := []byte("sign ME")
	tamperedBuf := (*C.uchar)(C.CBytes(tampered))
	defer C.free(unsafe.Pointer(tamperedBuf))
	if status := ZaultVerify(dsaPK, ZaultDSAPublicKeySize(), tamperedBuf, C.int(len(tampered)), sig, ZaultSignatureSize()); status != statusAuthFailed {
		t.Fatalf("ZaultVerify on tampered message returned %d, want statusAuthFailed", status)
	}
}

func TestSHA3_256(t *testing.T) {
	msg := []byte("hash me")
	msgBuf := (*C.uchar)(C.CBytes(msg))
	defer C.free(unsafe.Pointer(msgBuf))

	out := cBuf(32)
	defer C.free(unsafe.Pointer(out))
	if status := ZaultSHA3_256(msgBuf, C.int(len(msg)), out, 32); status != statusOK {
		t.Fatalf("ZaultSHA3_256 returned %d", status)
	}

	out2 := cBuf(32)
	defer C.free(unsafe.Pointer(out2))
	ZaultSHA3_256(msgBuf, C.int(len(msg)), out2, 32)
	if string(goBytes(out, 32)) != string(goBytes(out2, 32)) {
		t.Error("ZaultSHA3_256 is not deterministic")
	}
}

func TestEncryptDecryptWithKeyRoundTrip(t *testing.T) {
	key := cBuf(32)
	defer C.free(unsafe.Pointer(key))
	if status := ZaultGenerateGroupKey(key, 32); status != statusOK {
		t.Fatalf("ZaultGenerateGroupKey returned %d", status)
	}

	msg := []byte("group secret")
	msgBuf := (*C.uchar)(C.CBytes(msg))
	defer C.free(unsafe.Pointer(msgBuf))

	ctCap := len(msg) + 12 + 16
	ct := cBuf(ctCap)
	defer C.free(unsafe.Pointer(ct))
	var written C.int
	if status := ZaultEncryptWithKey(key, 32, msgBuf, C.int(len(msg)), ct, C.int(ctCap), &written); status != statusOK {
		t.Fatalf("ZaultEncryptWithKey returned %d", status)
	}

	pt := cBuf(len(msg))
	defer C.free(unsafe.Pointer(pt))
	var ptWritten C.int
	if status := ZaultDecryptWithKey(key, 32, ct, written, pt, C.int(len(msg)), &ptWritten); status != statusOK {
		t.Fatalf("ZaultDecryptWithKey returned %d", status)
	}
	if string(goBytes(pt, int(ptWritten))) != string(msg) {
		t.Errorf("decrypted message = %q, want %q", goBytes(pt, int(ptWritten)), msg)
	}
}

func TestRandomBytesFillsBuffer(t *testing.T) {
	buf := cBuf(16)
	defer C.free(unsafe.Pointer(buf))
	if status := ZaultRandomBytes(buf, 16); status != statusOK {
		t.Fatalf("ZaultRandomBytes returned %d", status)
	}
}

func TestWriteOutRejectsUndersizedCapacity(t *testing.T) {
	dst := cBuf(4)
	defer C.free(unsafe.Pointer(dst))
	if status := writeOut(dst, 4, []byte("too long")); status != statusInvalidArg {
		t.Errorf("writeOut with undersized capacity returned %d, want statusInvalidArg", status)
	}
}
