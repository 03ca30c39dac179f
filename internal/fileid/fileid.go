// Package fileid derives stable record keys from file paths.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "file:"

// Key returns the record key for path. Equal paths after filepath.Clean give equal
// keys; callers that need one key per file should pass an absolute path.
func Key(path string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return prefix + hex.EncodeToString(hash[:16])
}

// FromPath returns the key of the absolute form of path.
func FromPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return Key(abs), nil
}
