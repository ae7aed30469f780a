package decompressor

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdReadCloser closes both the decoder and the stream it reads from.
type zstdReadCloser struct {
	*zstd.Decoder
	source io.ReadCloser
}

type gzipReadCloser struct {
	io.ReadCloser
	source io.ReadCloser
}
