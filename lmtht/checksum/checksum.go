// Package checksum implements C, the 64-bit keyed integrity checksum
// computed over each entry's raw bytes. C is deliberately independent of
// H (package lmtht/hash): a bug or weakness in the tree's combine hash
// must never be able to also defeat the checksum that guards against a
// torn or corrupted write.
package checksum

import (
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
)

// key is mixed into every checksum before the entry's own bytes, so a
// checksum computed by this package can never collide with a bare
// xxhash.Sum64 of the same bytes computed elsewhere. Four 64-bit words,
// chosen arbitrarily and fixed for all time — changing them would change
// every checksum already on disk.
var key = [4]uint64{
	0x9E3779B97F4A7C15, 0xBF58476D1CE4E5B9,
	0x94D049BB133111EB, 0xD6E8FEB86659FD93,
}

// Sum computes C(data): the keyed 64-bit checksum of a complete entry's
// bytes.
func Sum(data []byte) uint64 {
	w := New()
	w.Write(data)
	return w.Sum64()
}

// Writer accumulates a streaming checksum over bytes as they are written
// to storage, avoiding a second pass over the entry once it has been
// serialized.
type Writer struct {
	d *xxhash.Digest
}

// New returns a Writer primed with the package key.
func New() *Writer {
	d := xxhash.New()
	var keyBytes [32]byte
	for i, w := range key {
		binary.LittleEndian.PutUint64(keyBytes[i*8:], w)
	}
	d.Write(keyBytes[:])
	return &Writer{d: d}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	return w.d.Write(p)
}

// Sum64 returns the checksum accumulated so far.
func (w *Writer) Sum64() uint64 {
	return w.d.Sum64()
}

// HashWriter wraps an io.Writer, tee-ing every write into a Writer so the
// checksum of everything written is available once the caller is done,
// without buffering the entry in memory first.
type HashWriter struct {
	io.Writer
	sum *Writer
}

// NewHashWriter wraps w so that writes through it are also accumulated
// into a running checksum.
func NewHashWriter(w io.Writer) *HashWriter {
	sum := New()
	return &HashWriter{Writer: io.MultiWriter(w, sum), sum: sum}
}

// Sum64 returns the checksum of everything written so far.
func (hw *HashWriter) Sum64() uint64 {
	return hw.sum.Sum64()
}

// HashReader wraps an io.Reader, accumulating a running checksum of
// everything read through it, so a caller parsing an entry field-by-field
// can verify its checksum without a second read pass.
type HashReader struct {
	r     io.Reader
	sum   *Writer
	nread int64
}

// NewHashReader wraps r so that reads through it are also accumulated
// into a running checksum.
func NewHashReader(r io.Reader) *HashReader {
	return &HashReader{r: r, sum: New()}
}

// BytesRead returns the number of bytes read through this wrapper so far.
func (hr *HashReader) BytesRead() int64 {
	return hr.nread
}

func (hr *HashReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		hr.sum.Write(p[:n])
		hr.nread += int64(n)
	}
	return n, err
}

// Sum64 returns the checksum of everything read so far.
func (hr *HashReader) Sum64() uint64 {
	return hr.sum.Sum64()
}
