// Package hash supplies the H primitive: a fixed-width digest function plus
// a pairwise combiner for building internal node hashes. Which concrete
// algorithm backs H is a runtime choice (a Hasher value), not a build-time
// one — the core only ever depends on the Hasher interface.
package hash

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"

	"github.com/cespare/xxhash/v2"
)

// Hasher is the H primitive required by the core: a deterministic digest
// of fixed Size() and a combiner hash(a||b) for internal nodes.
type Hasher interface {
	// Size returns HASH_SIZE, the fixed digest width in bytes.
	Size() int
	// Hash returns H(payload).
	Hash(payload []byte) []byte
	// Combine returns H(a || b) for two digests of Size() bytes each.
	Combine(a, b []byte) []byte
}

type stdHasher struct {
	newHash func() hash.Hash
	size    int
}

func (h stdHasher) Size() int { return h.size }

func (h stdHasher) Hash(payload []byte) []byte {
	d := h.newHash()
	d.Write(payload)
	return d.Sum(nil)
}

func (h stdHasher) Combine(a, b []byte) []byte {
	d := h.newHash()
	d.Write(a)
	d.Write(b)
	return d.Sum(nil)
}

// SHA224 returns a Hasher backed by SHA-224 (HASH_SIZE = 28).
func SHA224() Hasher { return stdHasher{sha256.New224, sha256.Size224} }

// SHA256 returns a Hasher backed by SHA-256 (HASH_SIZE = 32).
func SHA256() Hasher { return stdHasher{sha256.New, sha256.Size} }

// SHA512 returns a Hasher backed by SHA-512 (HASH_SIZE = 64).
func SHA512() Hasher { return stdHasher{sha512.New, sha512.Size} }

// SHA512_224 returns a Hasher backed by SHA-512/224 (HASH_SIZE = 28).
func SHA512_224() Hasher { return stdHasher{sha512.New512_224, sha512.Size224} }

// SHA512_256 returns a Hasher backed by SHA-512/256 (HASH_SIZE = 32).
func SHA512_256() Hasher { return stdHasher{sha512.New512_256, sha512.Size256} }

// fastHasher is the non-cryptographic 64-bit variant (HASH_SIZE = 8),
// used for the reproducible end-to-end scenarios in testing where a
// cryptographic digest only adds overhead, not assurance.
type fastHasher struct{}

// Fast returns a Hasher backed by xxhash, a fast 64-bit non-cryptographic
// digest. HASH_SIZE is 8 bytes.
func Fast() Hasher { return fastHasher{} }

func (fastHasher) Size() int { return 8 }

func (fastHasher) Hash(payload []byte) []byte {
	return encodeU64(xxhash.Sum64(payload))
}

func (fastHasher) Combine(a, b []byte) []byte {
	d := xxhash.New()
	d.Write(a)
	d.Write(b)
	return encodeU64(d.Sum64())
}

func encodeU64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}
