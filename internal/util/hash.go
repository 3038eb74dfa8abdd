package util

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

func SHA256Hex(b []byte) string {
	x := sha256.Sum256(b)
	return hex.EncodeToString(x[:])
}

// DigestReader hashes everything read through it, so an upload can be
// copied to disk and fingerprinted in one pass.
type DigestReader struct {
	r io.Reader
	h hash.Hash
}

func NewDigestReader(r io.Reader) *DigestReader {
	return &DigestReader{r: r, h: sha256.New()}
}

func (d *DigestReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if n > 0 {
		_, _ = d.h.Write(p[:n])
	}
	return n, err
}

// Hex returns the sha256 of the bytes read so far.
func (d *DigestReader) Hex() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
