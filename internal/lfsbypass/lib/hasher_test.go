package lib

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Known SHA-256 digests.
const (
	helloWorldHash = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	emptyHash      = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

func TestGetHash(t *testing.T) {
	assert.Equal(t, helloWorldHash, GetHash([]byte("hello world")))
	assert.Equal(t, emptyHash, GetHash([]byte{}))
	assert.Equal(t, emptyHash, GetHash(nil))
}

func TestGetFileHash(t *testing.T) {
	t.Run("file with content", func(t *testing.T) {
		hash, err := GetFileHash(setupTestFile(t, "hello.txt", []byte("hello world")))
		require.NoError(t, err)
		assert.Equal(t, helloWorldHash, hash)
	})

	t.Run("empty file", func(t *testing.T) {
		hash, err := GetFileHash(setupTestFile(t, "empty.txt", []byte{}))
		require.NoError(t, err)
		assert.Equal(t, emptyHash, hash)
	})

	t.Run("non-existent file", func(t *testing.T) {
		_, err := GetFileHash(filepath.Join(t.TempDir(), "this_does_not_exist.txt"))
		require.Error(t, err)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("matches in-memory hash", func(t *testing.T) {
		content := patternedContent(70_000)
		hash, err := GetFileHash(setupTestFile(t, "big.bin", content))
		require.NoError(t, err)
		assert.Equal(t, GetHash(content), hash)
	})
}

func TestIsHexDigest(t *testing.T) {
	assert.True(t, isHexDigest(helloWorldHash))
	assert.False(t, isHexDigest(""))
	assert.False(t, isHexDigest(helloWorldHash[:10]))
	assert.False(t, isHexDigest(strings.Repeat("z", 64)))
}
