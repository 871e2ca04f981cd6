package unittest

import "crypto/rand"

// PayloadFixture returns a pseudo-random payload of n bytes, suitable for
// appending to a tree in tests that don't care about its contents.
func PayloadFixture(n int) []byte {
	p := make([]byte, n)
	_, _ = rand.Read(p)
	return p
}

// PayloadListFixture returns n independently random payloads, each of the
// given size.
func PayloadListFixture(count, size int) [][]byte {
	payloads := make([][]byte, count)
	for i := range payloads {
		payloads[i] = PayloadFixture(size)
	}
	return payloads
}
