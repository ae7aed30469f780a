package decompressor

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestWrapZstd(t *testing.T) {
	src := &closeTracker{Reader: bytes.NewReader(zstdBytes(t, []byte("servers.dat contents")))}

	rc, err := Wrap("zstd", src)
	require.NoError(t, err)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	assert.Equal(t, "servers.dat contents", string(out))
	assert.True(t, src.closed)
}

func TestWrapGzip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write([]byte("options"))
	require.NoError(t, w.Close())
	src := &closeTracker{Reader: &buf}

	rc, err := Wrap("GZIP", src)
	require.NoError(t, err)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	assert.Equal(t, "options", string(out))
	assert.True(t, src.closed)
}

func TestWrapIdentity(t *testing.T) {
	src := &closeTracker{Reader: bytes.NewReader([]byte("raw"))}
	rc, err := Wrap("", src)
	require.NoError(t, err)
	assert.Same(t, src, rc)
}

func TestDecodeZstd(t *testing.T) {
	out, err := DecodeZstd(zstdBytes(t, []byte("jar bytes")))
	require.NoError(t, err)
	assert.Equal(t, "jar bytes", string(out))

	_, err = DecodeZstd([]byte("not zstd"))
	assert.Error(t, err)
}
