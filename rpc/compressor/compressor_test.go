package compressor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoneIsNil(t *testing.T) {
	c, err := New("none")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = New("brotli")
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("table:users key:u1 value:alice "), 500)

	for _, name := range Names[1:] {
		t.Run(name, func(t *testing.T) {
			c, err := New(name)
			require.NoError(t, err)
			require.Equal(t, name, c.Name())

			compressed, err := c.Compress(payload)
			require.NoError(t, err)
			assert.Less(t, len(compressed), len(payload))

			out, err := c.Decompress(compressed, len(payload))
			require.NoError(t, err)
			assert.Equal(t, payload, out)
		})
	}
}

func TestDecompressLimit(t *testing.T) {
	payload := bytes.Repeat([]byte{'a'}, 64*1024)

	for _, name := range Names[1:] {
		t.Run(name, func(t *testing.T) {
			c, err := New(name)
			require.NoError(t, err)

			compressed, err := c.Compress(payload)
			require.NoError(t, err)

			_, err = c.Decompress(compressed, 1024)
			assert.ErrorIs(t, err, ErrTooLarge)
		})
	}
}

func TestDecompressConcatenatedFrames(t *testing.T) {
	c, err := New("zstd")
	require.NoError(t, err)

	frame, err := c.Compress(bytes.Repeat([]byte{0}, 64*1024-1))
	require.NoError(t, err)

	// every frame fits the limit on its own, together they are 64 times larger
	var concatenated []byte
	for i := 0; i < 64; i++ {
		concatenated = append(concatenated, frame...)
	}

	_, err = c.Decompress(concatenated, 64*1024)
	assert.ErrorIs(t, err, ErrTooLarge)

	// frames below the limit still decode completely
	small, err := c.Compress([]byte("users"))
	require.NoError(t, err)
	out, err := c.Decompress(append(append([]byte{}, small...), small...), 64)
	require.NoError(t, err)
	assert.Equal(t, []byte("usersusers"), out)
}

func TestDecompressGarbage(t *testing.T) {
	for _, name := range Names[1:] {
		t.Run(name, func(t *testing.T) {
			c, err := New(name)
			require.NoError(t, err)

			_, err = c.Decompress([]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}, 1024)
			assert.Error(t, err)
		})
	}
}
