package bundle

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSProviderPlainAndCompressed(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	shim := enc.EncodeAll([]byte("shim jar"), nil)
	require.NoError(t, enc.Close())

	p := NewFSProvider(fstest.MapFS{
		"options.txt":        {Data: []byte("fov:70")},
		GraphicsShim + ".zst": {Data: shim},
	})

	data, err := p.Open("options.txt")
	require.NoError(t, err)
	assert.Equal(t, "fov:70", string(data))

	data, err = p.Open(GraphicsShim)
	require.NoError(t, err)
	assert.Equal(t, "shim jar", string(data))

	_, err = p.Open("missing.json")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestConfigBlobsCoverBundledNames(t *testing.T) {
	assert.Len(t, ConfigBlobs, 13)
	seen := map[string]bool{}
	for _, b := range ConfigBlobs {
		assert.False(t, seen[b.Target], "duplicate target %s", b.Target)
		seen[b.Target] = true
	}
}
