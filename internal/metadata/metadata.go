// Package metadata implements the plaintext record a vault encrypts
// and wraps in a metadata block: the filename, MIME type, size, and
// content key binding a metadata block to its paired content block.
// The package has no cryptographic state of its own; it only knows
// how to serialize and deserialize this one record shape.
package metadata

import (
	"encoding/binary"
	"fmt"

	"github.com/zault/zault/internal/core"
	"github.com/zault/zault/internal/crypto"
)

// FormatVersion is the only metadata record version this build writes
// or accepts.
const FormatVersion byte = 0x01

// Length limits on the variable-width fields. Values beyond these
// fail Deserialize with core.ErrMetadataMalformed.
const (
	MaxFilenameLen = 4 * 1024
	MaxMimeLen     = 256
)

// fixedSize is every fixed-width field: version(1) + content_key(32)
// + size(8) + filename_len(2) + mime_len(2).
const fixedSize = 1 + crypto.SymmetricKeySize + 8 + 2 + 2

// Record is the plaintext metadata record, before it is AEAD-sealed
// into a metadata block's data field.
type Record struct {
	ContentKey [crypto.SymmetricKeySize]byte
	Size       uint64
	Filename   string
	Mime       string
}

// Serialize encodes r in the TLV-style layout: fixed fields, then
// filename, then mime.
func (r *Record) Serialize() ([]byte, error) {
	filenameBytes := []byte(r.Filename)
	mimeBytes := []byte(r.Mime)

	if len(filenameBytes) > MaxFilenameLen {
		return nil, fmt.Errorf("%w: filename is %d bytes, exceeds %d", core.ErrMetadataMalformed, len(filenameBytes), MaxFilenameLen)
	}
	if len(mimeBytes) > MaxMimeLen {
		return nil, fmt.Errorf("%w: mime is %d bytes, exceeds %d", core.ErrMetadataMalformed, len(mimeBytes), MaxMimeLen)
	}

	out := make([]byte, 0, fixedSize+len(filenameBytes)+len(mimeBytes))
	out = append(out, FormatVersion)
	out = append(out, r.ContentKey[:]...)

	var size [8]byte
	binary.BigEndian.PutUint64(size[:], r.Size)
	out = append(out, size[:]...)

	var filenameLen [2]byte
	binary.BigEndian.PutUint16(filenameLen[:], uint16(len(filenameBytes)))
	out = append(out, filenameLen[:]...)
	out = append(out, filenameBytes...)

	var mimeLen [2]byte
	binary.BigEndian.PutUint16(mimeLen[:], uint16(len(mimeBytes)))
	out = append(out, mimeLen[:]...)
	out = append(out, mimeBytes...)

	return out, nil
}

// Deserialize parses a record previously produced by Serialize.
func Deserialize(data []byte) (*Record, error) {
	if len(data) < fixedSize {
		return nil, fmt.Errorf("%w: metadata record is %d bytes, minimum is %d", core.ErrMetadataMalformed, len(data), fixedSize)
	}

	off := 0
	version := data[off]
	off++
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: unknown metadata version %d", core.ErrMetadataMalformed, version)
	}

	r := &Record{}
	copy(r.ContentKey[:], data[off:off+crypto.SymmetricKeySize])
	off += crypto.SymmetricKeySize

	r.Size = binary.BigEndian.Uint64(data[off : off+8])
	off += 8

	filenameLen := int(binary.BigEndian.Uint16(data[off : off+2]))
	off += 2
	if filenameLen > MaxFilenameLen {
		return nil, fmt.Errorf("%w: filename_len %d exceeds %d", core.ErrMetadataMalformed, filenameLen, MaxFilenameLen)
	}
	if off+filenameLen > len(data) {
		return nil, fmt.Errorf("%w: filename_len %d runs past end of record", core.ErrMetadataMalformed, filenameLen)
	}
	r.Filename = string(data[off : off+filenameLen])
	off += filenameLen

	if off+2 > len(data) {
		return nil, fmt.Errorf("%w: record truncated before mime_len", core.ErrMetadataMalformed)
	}
	mimeLen := int(binary.BigEndian.Uint16(data[off : off+2]))
	off += 2
	if mimeLen > MaxMimeLen {
		return nil, fmt.Errorf("%w: mime_len %d exceeds %d", core.ErrMetadataMalformed, mimeLen, MaxMimeLen)
	}
	if off+mimeLen != len(data) {
		return nil, fmt.Errorf("%w: mime_len %d is inconsistent with record size", core.ErrMetadataMalformed, mimeLen)
	}
	r.Mime = string(data[off : off+mimeLen])

	return r, nil
}
