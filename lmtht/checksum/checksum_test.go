package checksum

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSumDeterministic(t *testing.T) {
	data := []byte("a logarithmic multi-tier hash tree entry")
	require.Equal(t, Sum(data), Sum(data))
}

func TestSumDetectsTamper(t *testing.T) {
	a := []byte("first entry body")
	b := []byte("First entry body")
	require.NotEqual(t, Sum(a), Sum(b))
}

func TestHashWriterMatchesSum(t *testing.T) {
	data := []byte("streamed entry bytes")
	var buf bytes.Buffer
	hw := NewHashWriter(&buf)
	_, err := hw.Write(data)
	require.NoError(t, err)
	require.Equal(t, Sum(data), hw.Sum64())
	require.Equal(t, data, buf.Bytes())
}

func TestHashReaderMatchesSum(t *testing.T) {
	data := []byte("streamed entry bytes read back")
	hr := NewHashReader(bytes.NewReader(data))
	out := make([]byte, len(data))
	n, err := io.ReadFull(hr, out)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, Sum(data), hr.Sum64())
}
