package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/zault/zault/internal/core"
)

func openTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := Init(filepath.Join(t.TempDir(), "vault"))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { v.Close() })
	return v
}

func TestAddFileGetFileRoundTrip(t *testing.T) {
	v := openTestVault(t)

	srcPath := filepath.Join(t.TempDir(), "notes.txt")
	content := []byte("test data for vault")
	if err := os.WriteFile(srcPath, content, 0600); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}

	h, err := v.AddFile(srcPath)
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "out.txt")
	if err := v.GetFile(h, outPath); err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("round-tripped content = %q, want %q", got, content)
	}
}

func TestAddFileTwiceYieldsDifferentHashes(t *testing.T) {
	v := openTestVault(t)

	srcPath := filepath.Join(t.TempDir(), "same.txt")
	content := []byte("identical bytes both times")
	os.WriteFile(srcPath, content, 0600)

	h1, err := v.AddFile(srcPath)
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	h2, err := v.AddFile(srcPath)
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	if h1 == h2 {
		t.Error("adding identical bytes twice should draw fresh keys and nonces, yielding different metadata hashes")
	}

	for _, h := range []struct {
		name string
		hash [32]byte
	}{{"first", h1}, {"second", h2}} {
		outPath := filepath.Join(t.TempDir(), h.name+".out")
		if err := v.GetFile(h.hash, outPath); err != nil {
			t.Fatalf("GetFile(%s) failed: %v", h.name, err)
		}
		got, _ := os.ReadFile(outPath)
		if !bytes.Equal(got, content) {
			t.Errorf("GetFile(%s) = %q, want %q", h.name, got, content)
		}
	}
}

func TestListReturnsAddedFiles(t *testing.T) {
	v := openTestVault(t)

	files := map[string][]byte{
		"a.txt": []byte("file a"),
		"b.txt": []byte("file b"),
		"c.txt": []byte("file c"),
	}
	for name, content := range files {
		p := filepath.Join(t.TempDir(), name)
		os.WriteFile(p, content, 0600)
		if _, err := v.AddFile(p); err != nil {
			t.Fatalf("AddFile failed: %v", err)
		}
	}

	entries, err := v.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != len(files) {
		t.Fatalf("List returned %d entries, want %d", len(entries), len(files))
	}

	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.Filename] = true
		want, ok := files[e.Filename]
		if !ok {
			t.Errorf("unexpected filename in listing: %q", e.Filename)
			continue
		}
		if e.Size != uint64(len(want)) {
			t.Errorf("entry %q size = %d, want %d", e.Filename, e.Size, len(want))
		}
	}
	for name := range files {
		if !seen[name] {
			t.Errorf("List did not include %q", name)
		}
	}
}

func TestVerifyValidBlock(t *testing.T) {
	v := openTestVault(t)
	p := filepath.Join(t.TempDir(), "hello.txt")
	os.WriteFile(p, []byte("hello"), 0600)
	h, err := v.AddFile(p)
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	if err := v.Verify(h); err != nil {
		t.Errorf("Verify should succeed on a freshly added metadata block: %v", err)
	}
}

func TestVerifyDetectsTamperedBlock(t *testing.T) {
	v := openTestVault(t)
	p := filepath.Join(t.TempDir(), "hello.txt")
	os.WriteFile(p, []byte("hello"), 0600)
	h, err := v.AddFile(p)
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	blockPath := blockFilePath(v.path, h)
	data, err := os.ReadFile(blockPath)
	if err != nil {
		t.Fatalf("failed to read block file: %v", err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(blockPath, data, 0600); err != nil {
		t.Fatalf("failed to write tampered block: %v", err)
	}

	if err := v.Verify(h); err == nil {
		t.Error("Verify should fail on a tampered metadata block")
	}
}

func TestInitReopensExistingVault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")
	v1, err := Init(dir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	pub1, err := v1.Identity().Public().Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	v1.Close()

	v2, err := Init(dir)
	if err != nil {
		t.Fatalf("Init (reopen) failed: %v", err)
	}
	defer v2.Close()
	pub2, err := v2.Identity().Public().Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if !bytes.Equal(pub1, pub2) {
		t.Error("reopening a vault should reuse its existing identity, not generate a new one")
	}
}

func TestAddFileRejectsOversizedInput(t *testing.T) {
	v := openTestVault(t)
	p := filepath.Join(t.TempDir(), "big.bin")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	if err := f.Truncate(MaxFileSize + 1); err != nil {
		f.Close()
		t.Fatalf("failed to truncate test file: %v", err)
	}
	f.Close()

	if _, err := v.AddFile(p); err == nil {
		t.Error("AddFile should reject a file larger than MaxFileSize")
	} else if !errorIs(err, core.ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func blockFilePath(vaultPath string, h [32]byte) string {
	hexHash := hexEncode(h[:])
	shard := hexEncode(h[:1])
	return filepath.Join(vaultPath, "blocks", shard, hexHash)
}
