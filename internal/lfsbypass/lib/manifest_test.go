package lib

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validManifest() *types.Manifest {
	return &types.Manifest{
		FileName:     "game.data",
		OriginalSize: 25,
		Hash:         helloWorldHash,
		Chunks: []types.ChunkDescriptor{
			{Path: "game.data.chunk.0-10", Start: 0, Size: 10, Hash: emptyHash},
			{Path: "game.data.chunk.10-20", Start: 10, Size: 10, Hash: emptyHash},
			{Path: "game.data.chunk.20-25", Start: 20, Size: 5, Hash: emptyHash},
		},
	}
}

func TestValidateManifest(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(m *types.Manifest)
		wantErr bool
	}{
		{name: "valid", mutate: func(m *types.Manifest) {}},
		{
			name: "chunks listed out of order",
			mutate: func(m *types.Manifest) {
				m.Chunks[0], m.Chunks[2] = m.Chunks[2], m.Chunks[0]
			},
		},
		{
			name: "empty file",
			mutate: func(m *types.Manifest) {
				m.OriginalSize = 0
				m.Chunks = nil
			},
		},
		{name: "missing fileName", mutate: func(m *types.Manifest) { m.FileName = "" }, wantErr: true},
		{name: "negative size", mutate: func(m *types.Manifest) { m.OriginalSize = -1 }, wantErr: true},
		{name: "missing hash", mutate: func(m *types.Manifest) { m.Hash = "" }, wantErr: true},
		{name: "non-hex hash", mutate: func(m *types.Manifest) { m.Hash = "not-a-digest" }, wantErr: true},
		{name: "size sum too small", mutate: func(m *types.Manifest) { m.OriginalSize = 30 }, wantErr: true},
		{name: "chunk beyond end", mutate: func(m *types.Manifest) { m.OriginalSize = 22 }, wantErr: true},
		{name: "gap", mutate: func(m *types.Manifest) { m.Chunks[1].Start = 11; m.Chunks[1].Size = 9 }, wantErr: true},
		{name: "overlap", mutate: func(m *types.Manifest) { m.Chunks[1].Start = 9; m.Chunks[1].Size = 11 }, wantErr: true},
		{name: "missing chunk", mutate: func(m *types.Manifest) { m.Chunks = m.Chunks[:2] }, wantErr: true},
		{name: "empty chunk path", mutate: func(m *types.Manifest) { m.Chunks[0].Path = "" }, wantErr: true},
		{name: "escaping chunk path", mutate: func(m *types.Manifest) { m.Chunks[0].Path = "../secret" }, wantErr: true},
		{name: "nested chunk path", mutate: func(m *types.Manifest) { m.Chunks[0].Path = "sub/chunk" }, wantErr: true},
		{name: "negative start", mutate: func(m *types.Manifest) { m.Chunks[0].Start = -1 }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := validManifest()
			tc.mutate(m)
			err := ValidateManifest(m)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedManifest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChunkFileNames(t *testing.T) {
	assert.Equal(t, "Build.data.chunk.0-52428800", ChunkFileName("Build.data", 0, 52428800))
	assert.Equal(t, "Build.data.manifest.json", ManifestFileName("Build.data"))
	assert.Equal(t, filepath.Join("chunks", "Build.data.manifest.json"), ManifestPath("chunks", "Build.data"))

	assert.True(t, IsChunkFileName("Build.data.chunk.0-10"))
	assert.True(t, IsChunkFileName("my.chunk.file.chunk.10-20"))
	assert.False(t, IsChunkFileName("Build.data.manifest.json"))
	assert.False(t, IsChunkFileName(".chunk.0-10"))
	assert.False(t, IsChunkFileName("Build.data.chunk.abc"))
	assert.False(t, IsChunkFileName("Build.data.chunk.20-10"))
}

func TestWriteAndReadManifest(t *testing.T) {
	dir := t.TempDir()
	m := validManifest()

	path, err := WriteManifest(dir, m)
	require.NoError(t, err)
	assert.Equal(t, ManifestPath(dir, "game.data"), path)

	read, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m, read)

	// No temporary files are left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// Field names follow the documented format.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Contains(t, generic, "fileName")
	assert.Contains(t, generic, "originalSize")
	assert.Contains(t, generic, "hash")
	assert.Contains(t, generic, "chunks")
}

func TestReadManifestErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		_, err := ReadManifest(filepath.Join(dir, "absent.manifest.json"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.manifest.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
		_, err := ReadManifest(path)
		assert.ErrorIs(t, err, ErrMalformedManifest)
	})

	t.Run("fields missing", func(t *testing.T) {
		path := filepath.Join(dir, "partial.manifest.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"fileName":"x","originalSize":4}`), 0644))
		_, err := ReadManifest(path)
		assert.ErrorIs(t, err, ErrMalformedManifest)
	})
}

func TestListAndFindManifests(t *testing.T) {
	dir := t.TempDir()
	splitter := NewSplitter(4)
	for _, name := range []string{"Build.wasm", "Build.data", "Other.data"} {
		_, err := splitter.Split(setupTestFile(t, name, patternedContent(9)), dir)
		require.NoError(t, err)
	}
	// Garbage and unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.manifest.json"), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))

	details, err := ListManifests(dir)
	require.NoError(t, err)
	require.Len(t, details, 3)
	assert.Equal(t, "Build.data", details[0].FileName)
	assert.Equal(t, "Build.wasm", details[1].FileName)
	assert.Equal(t, "Other.data", details[2].FileName)
	assert.Equal(t, 3, details[0].ChunkCount)
	assert.Equal(t, int64(9), details[0].OriginalSize)

	found, err := FindManifest(dir, "Build.wasm")
	require.NoError(t, err)
	assert.Equal(t, ManifestPath(dir, "Build.wasm"), found.Path)

	found, err = FindManifest(dir, "Oth")
	require.NoError(t, err)
	assert.Equal(t, "Other.data", found.FileName)

	_, err = FindManifest(dir, "Build")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = FindManifest(dir, "Nope")
	assert.Error(t, err)

	empty, err := ListManifests(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
