package storage

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStorageWriteRead(t *testing.T) {
	s := NewMemStorage()
	w, err := s.Open(true)
	require.NoError(t, err)

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	size, err := s.Size()
	require.NoError(t, err)
	require.EqualValues(t, 5, size)

	r, err := s.Open(false)
	require.NoError(t, err)
	buf := make([]byte, 5)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))
}

func TestMemStorageReadOnlyRejectsWrite(t *testing.T) {
	s := NewMemStorage()
	r, err := s.Open(false)
	require.NoError(t, err)
	_, err = r.Write([]byte("nope"))
	require.Error(t, err)
}

func TestMemStorageSeekPastEndGrowsWithZeros(t *testing.T) {
	s := NewMemStorage()
	w, err := s.Open(true)
	require.NoError(t, err)

	_, err = w.Seek(4, SeekStart)
	require.NoError(t, err)
	_, err = w.Write([]byte("X"))
	require.NoError(t, err)

	size, err := s.Size()
	require.NoError(t, err)
	require.EqualValues(t, 5, size)

	r, _ := s.Open(false)
	buf := make([]byte, 5)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0, 'X'}, buf)
}

func TestFileStorageRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "lmtht-storage-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "tree.db")
	s := NewFileStorage(path)

	w, err := s.Open(true)
	require.NoError(t, err)
	_, err = w.Write([]byte("01F3"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	size, err := s.Size()
	require.NoError(t, err)
	require.EqualValues(t, 4, size)

	r, err := s.Open(false)
	require.NoError(t, err)
	defer r.Close()
	buf := make([]byte, 4)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, "01F3", string(buf))
}
