package lmtht

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dapperlabs/lmtht/lmtht/errs"
	"github.com/dapperlabs/lmtht/lmtht/hash"
)

func TestWriteReadEntryRoundTrip(t *testing.T) {
	h := hash.SHA256()
	leafHash := h.Hash([]byte("payload-1"))
	e := &Entry{
		I:        1,
		Payload:  []byte("payload-1"),
		LeafHash: leafHash,
	}

	var buf bytes.Buffer
	n, sum, err := WriteEntry(&buf, h, e)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	require.NotZero(t, sum)

	got, err := ReadEntry(&buf, h, true)
	require.NoError(t, err)
	require.Equal(t, e.I, got.I)
	require.Equal(t, e.Payload, got.Payload)
	require.Equal(t, e.LeafHash, got.LeafHash)
	require.Empty(t, got.INodes)
}

func TestWriteReadEntryWithINodes(t *testing.T) {
	h := hash.SHA256()
	leafHash := h.Hash([]byte("payload-2"))
	e := &Entry{
		I:        2,
		Payload:  []byte("payload-2"),
		LeafHash: leafHash,
		INodes: []INodeRecord{
			{J: 1, Left: NodeRef{Pos: 4, I: 1, J: 0}, Hash: h.Combine(leafHash, leafHash)},
		},
	}

	var buf bytes.Buffer
	_, _, err := WriteEntry(&buf, h, e)
	require.NoError(t, err)

	got, err := ReadEntry(&buf, h, true)
	require.NoError(t, err)
	require.Len(t, got.INodes, 1)
	require.Equal(t, uint8(1), got.INodes[0].J)
	require.Equal(t, int64(4), got.INodes[0].Left.Pos)
	require.Equal(t, uint64(1), got.INodes[0].Left.I)
}

func TestReadEntryDetectsTamperedChecksum(t *testing.T) {
	h := hash.SHA256()
	e := &Entry{I: 1, Payload: []byte("x"), LeafHash: h.Hash([]byte("x"))}

	var buf bytes.Buffer
	_, _, err := WriteEntry(&buf, h, e)
	require.NoError(t, err)

	raw := buf.Bytes()
	raw[0] ^= 0xFF // flip a bit inside the serialized index

	_, err = ReadEntry(bytes.NewReader(raw), h, true)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.ChecksumMismatch))
}

func TestReadEntrySkipsVerificationWhenAsked(t *testing.T) {
	h := hash.SHA256()
	e := &Entry{I: 1, Payload: []byte("x"), LeafHash: h.Hash([]byte("x"))}

	var buf bytes.Buffer
	_, _, err := WriteEntry(&buf, h, e)
	require.NoError(t, err)

	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xFF // corrupt only the stored checksum itself

	got, err := ReadEntry(bytes.NewReader(raw), h, false)
	require.NoError(t, err)
	require.Equal(t, e.Payload, got.Payload)
}

func TestCheckHeaderRejectsBadMagic(t *testing.T) {
	err := CheckHeader([]byte{0x00, 0x00, 0x00, 0x01})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.BadMagic))
}

func TestCheckHeaderRejectsFutureVersion(t *testing.T) {
	err := CheckHeader([]byte{magic[0], magic[1], magic[2], storageVersion + 1})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.IncompatibleVersion))
}

func TestCheckHeaderAcceptsCurrentVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf))
	require.NoError(t, CheckHeader(buf.Bytes()))
}
