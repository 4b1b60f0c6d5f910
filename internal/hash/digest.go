package hash

import "github.com/cespare/xxhash/v2"

// Digest is a running xxHash64 over every byte handed to it.
// The zero value is not usable; use NewDigest.
type Digest struct {
	d *xxhash.Digest
	n int64
}

// NewDigest returns an empty running digest.
func NewDigest() *Digest {
	return &Digest{d: xxhash.New()}
}

// Write adds p to the digest.
func (d *Digest) Write(p []byte) {
	_, _ = d.d.Write(p) // xxhash.Digest.Write never fails
	d.n += int64(len(p))
}

// Sum64 returns the digest of everything written so far.
func (d *Digest) Sum64() uint64 {
	return d.d.Sum64()
}

// Len returns the number of bytes written since the last reset.
func (d *Digest) Len() int64 {
	return d.n
}

// Reset clears the digest.
func (d *Digest) Reset() {
	d.d.Reset()
	d.n = 0
}
