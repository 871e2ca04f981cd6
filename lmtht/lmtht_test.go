package lmtht

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dapperlabs/lmtht/lmtht/hash"
	"github.com/dapperlabs/lmtht/lmtht/storage"
)

func openEmpty(t *testing.T, opts ...Option) *Tree {
	t.Helper()
	s := storage.NewMemStorage()
	tree, err := Open(s, hash.SHA256(), opts...)
	require.NoError(t, err)
	return tree
}

func TestAppendSingleLeaf(t *testing.T) {
	tree := openEmpty(t)

	root, err := tree.Append([]byte("v1"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), root.I)
	require.Equal(t, uint8(0), root.J)
	require.Equal(t, hash.SHA256().Hash([]byte("v1")), root.Hash)

	require.Equal(t, uint64(1), tree.N())
	require.Equal(t, uint8(0), tree.Height())
}

func TestAppendBuildsPerfectPairAtTwoLeaves(t *testing.T) {
	tree := openEmpty(t)
	h := hash.SHA256()

	_, err := tree.Append([]byte("v1"))
	require.NoError(t, err)
	root, err := tree.Append([]byte("v2"))
	require.NoError(t, err)

	require.Equal(t, uint64(2), root.I)
	require.Equal(t, uint8(1), root.J)
	want := h.Combine(h.Hash([]byte("v1")), h.Hash([]byte("v2")))
	require.Equal(t, want, root.Hash)
	require.Equal(t, uint8(1), tree.Height())
}

func TestAppendUnbalancedThreeLeaves(t *testing.T) {
	tree := openEmpty(t)
	h := hash.SHA256()

	for _, v := range []string{"v1", "v2", "v3"} {
		_, err := tree.Append([]byte(v))
		require.NoError(t, err)
	}

	root, ok := tree.Root()
	require.True(t, ok)
	require.Equal(t, uint64(3), root.I)
	require.Equal(t, uint8(1), root.J)

	left := h.Combine(h.Hash([]byte("v1")), h.Hash([]byte("v2")))
	want := h.Combine(left, h.Hash([]byte("v3")))
	require.Equal(t, want, root.Hash)
}

func TestAppendRejectsOversizedPayload(t *testing.T) {
	tree := openEmpty(t)
	_, err := tree.Append(make([]byte, MaxPayloadSize+1))
	require.Error(t, err)
}

func TestAppendManyLeavesMatchesRootHashDirectComputation(t *testing.T) {
	tree := openEmpty(t)
	h := hash.SHA256()

	const n = 37
	leaves := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		payload := []byte{byte(i)}
		leaves = append(leaves, payload)
		_, err := tree.Append(payload)
		require.NoError(t, err)
	}

	require.Equal(t, uint64(n), tree.N())

	// Recompute the root independently by folding hashes bottom-up with
	// the same odd-tail-carried rule, and compare.
	level := make([][]byte, n)
	for i, payload := range leaves {
		level[i] = h.Hash(payload)
	}
	for len(level) > 1 {
		m := len(level)
		pairs := m / 2
		next := make([][]byte, 0, pairs+1)
		for p := 0; p < pairs; p++ {
			next = append(next, h.Combine(level[2*p], level[2*p+1]))
		}
		if m%2 == 1 {
			next = append(next, level[m-1])
		}
		level = next
	}

	require.Equal(t, level[0], tree.RootHash())
}
