// Package lib contains the core, reusable services for the lfsbypass application.
package lib

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// HashAlgorithm is the digest used for whole-file and per-chunk hashes in
// every manifest.
const HashAlgorithm = "sha256"

// GetHash calculates the SHA-256 hash of an in-memory byte slice and returns
// it as a lowercase hex-encoded string.
// Used for per-chunk digests and for verifying a reassembled buffer.
func GetHash(content []byte) string {
	hashBytes := sha256.Sum256(content)
	return hex.EncodeToString(hashBytes[:])
}

// GetFileHash calculates the SHA-256 hash of a file's contents by streaming
// it from disk, so the whole-file digest of a multi-gigabyte asset never
// needs the asset in memory.
func GetFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	return getReaderHash(file)
}

func getReaderHash(r io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// isHexDigest reports whether s looks like a hex-encoded SHA-256 digest.
func isHexDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
