package main

import "testing"

func TestParseHashRoundTrip(t *testing.T) {
	hex := "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
	h, err := parseHash(hex)
	if err != nil {
		t.Fatalf("parseHash failed: %v", err)
	}
	if h[0] != 0x01 || h[31] != 0x20 {
		t.Errorf("parseHash produced unexpected bytes: %x", h)
	}
}

func TestParseHashRejectsBadHex(t *testing.T) {
	if _, err := parseHash("not-hex"); err == nil {
		t.Error("parseHash should reject non-hex input")
	}
}

func TestParseHashRejectsWrongLength(t *testing.T) {
	if _, err := parseHash("aabb"); err == nil {
		t.Error("parseHash should reject a hash shorter than 32 bytes")
	}
}
