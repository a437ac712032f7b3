// The _test suffix creates an "external" test package, so the commands
// package's public API is tested as a black box.
package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/commands"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
	"github.com/stretchr/testify/require"
)

const mib = 1024 * 1024

// patterned returns n deterministic bytes offset by seed.
func patterned(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i%251) + seed
	}
	return b
}

// setupBuildDir creates a small Unity WebGL-like build tree: one file above
// a 1 MB threshold, a few small ones, and an .lfsignore.
func setupBuildDir(t *testing.T) string {
	t.Helper()

	buildDir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	files := map[string][]byte{
		"index.html":                  []byte("<html></html>"),
		"Build/WebGL.data":            patterned(3*mib/2, 0),
		"Build/WebGL.wasm":            patterned(1000, 7),
		"Build/WebGL.framework.js.gz": []byte("gz"),
		"TemplateData/style.css":      []byte("body{}"),
		"node_modules/dep/index.js":   []byte("module"),
		"Build/WebGL.symbols.json":    []byte("{}"),
		lib.IgnoreFilename:            []byte("# debug output\n*.symbols.json\n"),
	}
	for rel, content := range files {
		p := filepath.Join(buildDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, content, 0644))
	}
	return buildDir
}

// buildProject runs Build over a fresh build tree with a 1 MB threshold and
// 512 KiB chunks, returning the build dir and the project dir.
func buildProject(t *testing.T) (string, string) {
	t.Helper()
	buildDir := setupBuildDir(t)
	projectDir := filepath.Join(t.TempDir(), "server")
	report, err := commands.Build(commands.BuildOptions{
		SourceDir:   buildDir,
		OutputDir:   projectDir,
		ThresholdMB: 1,
		ChunkSize:   mib / 2,
	})
	require.NoError(t, err)
	require.Empty(t, report.Failures)
	return buildDir, projectDir
}
