package decompressor

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func (z *zstdReadCloser) Close() error {
	z.Decoder.Close()
	return z.source.Close()
}

func (g *gzipReadCloser) Close() error {
	err := g.ReadCloser.Close()
	if serr := g.source.Close(); err == nil {
		err = serr
	}
	return err
}

// Wrap decodes content according to a Content-Encoding style name.
// Unknown or empty encodings pass content through untouched.
func Wrap(encoding string, content io.ReadCloser) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "zstd":
		dec, err := zstd.NewReader(content)
		if err != nil {
			content.Close()
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		return &zstdReadCloser{Decoder: dec, source: content}, nil
	case "gzip":
		dec, err := gzip.NewReader(content)
		if err != nil {
			content.Close()
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return &gzipReadCloser{ReadCloser: dec, source: content}, nil
	default:
		return content, nil
	}
}

var decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))

// DecodeZstd decompresses a whole zstd frame held in memory.
func DecodeZstd(data []byte) ([]byte, error) {
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decoding zstd: %w", err)
	}
	return out, nil
}
