package identity

import "github.com/zault/zault/internal/crypto"

// seedBlockSize is the number of bytes drawn from HKDF-Expand per
// counter tick. Oversized relative to any single keygen read so a
// seededReader rarely needs a second tick in practice.
const seedBlockSize = 4096

// seededReader is an io.Reader that turns an HKDF-SHA3-256 pseudorandom
// key into an unbounded deterministic byte stream: each call to
// nextBlock expands prk with info ‖ counter, so the stream never
// repeats regardless of how many bytes a caller ultimately reads.
//
// This mirrors the deterministic-reader-for-reproducible-keygen
// pattern used elsewhere in Zault's dependency stack for seeded RSA
// keygen, adapted here to HKDF-SHA3-256 and to an unknown, possibly
// multi-read, consumption pattern from circl's keygen entry points.
type seededReader struct {
	prk     []byte
	info    []byte
	counter uint32
	buf     []byte
}

func newSeededReader(prk, info []byte) *seededReader {
	return &seededReader{prk: prk, info: info}
}

func (r *seededReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.buf) == 0 {
			block, err := r.nextBlock()
			if err != nil {
				return n, err
			}
			r.buf = block
		}
		c := copy(p[n:], r.buf)
		r.buf = r.buf[c:]
		n += c
	}
	return n, nil
}

func (r *seededReader) nextBlock() ([]byte, error) {
	info := make([]byte, 0, len(r.info)+4)
	info = append(info, r.info...)
	info = append(info,
		byte(r.counter>>24), byte(r.counter>>16), byte(r.counter>>8), byte(r.counter))
	r.counter++
	return crypto.HKDFExpand(r.prk, info, seedBlockSize)
}
