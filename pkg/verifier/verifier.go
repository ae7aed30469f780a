package verifier

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"PojClient/pkg/utils"
)

// FileSHA1 hashes the whole file at path.
func FileSHA1(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer utils.CloseStreamSafe(f)

	hash := sha1.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func BytesSHA1(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the file at path hashes to expected (hex, any case).
// A missing file is not an error.
func Verify(path, expected string) (bool, error) {
	computed, err := FileSHA1(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return strings.EqualFold(computed, strings.TrimSpace(expected)), nil
}
