package codec

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompress_RoundTrip(t *testing.T) {
	c := New(64, 6)
	data := bytes.Repeat([]byte("tiered cache "), 100)

	stored, compressed := c.Compress(data)
	require.True(t, compressed)
	require.Less(t, len(stored), len(data))

	out, err := c.Decompress(stored, compressed)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestCompress_BelowThreshold(t *testing.T) {
	c := New(1024, 6)
	data := []byte("small")

	stored, compressed := c.Compress(data)
	require.False(t, compressed)
	require.Equal(t, data, stored)
}

func TestCompress_IncompressibleStaysVerbatim(t *testing.T) {
	c := New(64, 9)
	data := make([]byte, 4096)
	_, err := rand.Read(data)
	require.NoError(t, err)

	stored, compressed := c.Compress(data)
	if compressed {
		// random data very rarely shrinks, but if it did the contract
		// still requires a strictly smaller stored form
		require.Less(t, len(stored), len(data))
		return
	}
	require.Equal(t, data, stored)
}

func TestCompress_NilCodec(t *testing.T) {
	var c *Codec
	data := bytes.Repeat([]byte("x"), 4096)

	stored, compressed := c.Compress(data)
	require.False(t, compressed)
	require.Equal(t, data, stored)

	out, err := c.Decompress(stored, false)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestDecompress_Uncompressed(t *testing.T) {
	c := New(64, 6)
	data := []byte("verbatim")

	out, err := c.Decompress(data, false)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestDecompress_CorruptStream(t *testing.T) {
	c := New(64, 6)

	_, err := c.Decompress([]byte("definitely not zlib"), true)
	require.Error(t, err)
}

func TestNew_ClampsLevel(t *testing.T) {
	data := bytes.Repeat([]byte("clamp "), 200)

	for _, level := range []int{-5, 42} {
		c := New(64, level)
		stored, compressed := c.Compress(data)
		out, err := c.Decompress(stored, compressed)
		require.NoError(t, err)
		require.Equal(t, data, out)
	}
}
