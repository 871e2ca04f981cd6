package lmtht

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dapperlabs/lmtht/lmtht/hash"
	"github.com/dapperlabs/lmtht/lmtht/storage"
)

func buildTree(t *testing.T, n int) (*Tree, hash.Hasher, [][]byte) {
	t.Helper()
	h := hash.Fast()
	s := storage.NewMemStorage()
	tree, err := Open(s, h)
	require.NoError(t, err)

	payloads := make([][]byte, n)
	for i := 0; i < n; i++ {
		payloads[i] = []byte{byte(i), byte(i >> 8)}
		_, err := tree.Append(payloads[i])
		require.NoError(t, err)
	}
	return tree, h, payloads
}

func TestQueryGetEmptyTree(t *testing.T) {
	s := storage.NewMemStorage()
	tree, err := Open(s, hash.Fast())
	require.NoError(t, err)

	q := tree.Query()
	_, ok, err := q.Get(1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestQueryGetReturnsPayload(t *testing.T) {
	tree, _, payloads := buildTree(t, 5)
	q := tree.Query()

	for i, want := range payloads {
		got, ok, err := q.Get(uint64(i + 1))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, got)
	}

	_, ok, err := q.Get(6)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestQueryGetValuesWithHashesSingleLeafRootMatches(t *testing.T) {
	tree, _, _ := buildTree(t, 1)
	q := tree.Query()

	vb, ok, err := q.GetValuesWithHashes(1, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, vb.Values, 1)
	require.Empty(t, vb.Branches)
	require.Equal(t, tree.RootHash(), vb.Root())
}

func TestQueryGetValuesWithHashesRootReconstructsAcrossSizes(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 6, 7, 17, 37, 100} {
		tree, _, _ := buildTree(t, n)
		q := tree.Query()
		root, ok := tree.Root()
		require.True(t, ok)

		vb, ok, err := q.GetValuesWithHashes(root.I, root.J)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, tree.RootHash(), vb.Root(), "n=%d", n)
		require.Len(t, vb.Values, n, "n=%d", n)
	}
}

func TestQueryGetValuesWithHashesSubtreeReconstructsToRoot(t *testing.T) {
	tree, _, _ := buildTree(t, 100)
	q := tree.Query()

	// (40, 3) is the S5 scenario's worked example: leaves [33, 40].
	vb, ok, err := q.GetValuesWithHashes(40, 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, vb.Values, 8)
	require.Equal(t, uint64(33), vb.Values[0].I)
	require.Equal(t, uint64(40), vb.Values[len(vb.Values)-1].I)

	require.Equal(t, tree.RootHash(), vb.Root())
}

func TestQueryGetValuesWithHashesUnknownAddressNotFound(t *testing.T) {
	tree, _, _ := buildTree(t, 5)
	q := tree.Query()

	_, ok, err := q.GetValuesWithHashes(5, 3)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestQueryGetWithHashesIsAliasForHeightZero(t *testing.T) {
	tree, _, payloads := buildTree(t, 9)
	q := tree.Query()

	vb, ok, err := q.GetWithHashes(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, vb.Values, 1)
	require.Equal(t, payloads[6], vb.Values[0].Payload)
	require.Equal(t, tree.RootHash(), vb.Root())
}

func TestQuerySnapshotIsStableAcrossConcurrentAppend(t *testing.T) {
	tree, _, _ := buildTree(t, 3)
	q := tree.Query()

	_, err := tree.Append([]byte("late"))
	require.NoError(t, err)

	require.Equal(t, uint64(3), q.N())
	require.Equal(t, uint64(4), tree.N())
}
