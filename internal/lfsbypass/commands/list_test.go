package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/commands"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDoesNotChangeChunks(t *testing.T) {
	_, projectDir := buildProject(t)
	chunksDir := lib.GetChunksDir(projectDir)

	before, err := os.ReadDir(chunksDir)
	require.NoError(t, err)

	require.NoError(t, commands.List(projectDir))

	after, err := os.ReadDir(chunksDir)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}

func TestListEmptyProject(t *testing.T) {
	assert.NoError(t, commands.List(t.TempDir()))
}

func TestListMissingProject(t *testing.T) {
	err := commands.List(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "does not exist")
}
