// Package commands contains the command implementations for the lfsbypass application.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/types"
)

// BuildOptions holds the configuration for the build command.
type BuildOptions struct {
	// SourceDir is the WebGL build tree to stage.
	SourceDir string
	// OutputDir is the project directory to generate.
	OutputDir string
	// ThresholdMB selects files strictly larger than this for splitting.
	ThresholdMB int64
	// ChunkSize is the segment size in bytes.
	ChunkSize int64
	// KeepOriginals leaves split files in public/ instead of removing them.
	KeepOriginals bool
}

// BuildReport summarizes a build.
type BuildReport struct {
	ProjectDir  string
	FilesCopied int
	Manifests   []*types.Manifest
	// Failures maps a file that could not be split to the reason.
	Failures map[string]error
}

// excludedDirs are never staged into public/.
var excludedDirs = []string{"node_modules", lib.PublicDirName, lib.ChunksDirName, ".git"}

// Build stages SourceDir into a new project, splits every oversized file into
// chunks and writes the project skeleton. A file that fails to split is
// recorded in the report and does not stop the build.
func Build(opts BuildOptions) (*BuildReport, error) {
	// 1. Initial setup and validation
	absSource, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve absolute path for %s: %w", opts.SourceDir, err)
	}
	if info, err := os.Stat(absSource); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("source directory does not exist: %s", absSource)
	}
	absOutput, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve absolute path for %s: %w", opts.OutputDir, err)
	}

	cfg := lib.DefaultConfig()
	if opts.ThresholdMB > 0 {
		cfg.ThresholdMB = opts.ThresholdMB
	}
	if opts.ChunkSize > 0 {
		cfg.ChunkSize = opts.ChunkSize
	}

	fmt.Printf("🛠  Creating server project in \"%s\"...\n", absOutput)

	paths, err := lib.EnsureProjectDirs(absOutput)
	if err != nil {
		return nil, fmt.Errorf("failed to create project directories: %w", err)
	}

	// 2. Stage the build tree.
	exclude := append([]string{filepath.Base(absOutput)}, excludedDirs...)
	copied, err := lib.CopyTree(absSource, paths.PublicDir, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to copy build files: %w", err)
	}
	fmt.Printf("   - Copied %d files to %s\n", copied, lib.PublicDirName)

	report := &BuildReport{
		ProjectDir:  absOutput,
		FilesCopied: copied,
		Failures:    make(map[string]error),
	}

	// 3. Find and split large files.
	largeFiles, err := lib.FindLargeFiles(paths.PublicDir, cfg.ThresholdBytes())
	if err != nil {
		return nil, fmt.Errorf("error searching for large files: %w", err)
	}
	if len(largeFiles) == 0 {
		fmt.Println("   - No large files found that need splitting.")
	} else {
		fmt.Printf("   - Found %d large files to split.\n", len(largeFiles))
	}

	splitter := lib.NewSplitter(cfg.ChunkSize)
	for _, filePath := range largeFiles {
		manifest, err := splitOne(splitter, filePath, paths.ChunksDir, opts.KeepOriginals)
		if err != nil {
			fmt.Fprintf(os.Stderr, "   ! Error splitting %s: %v\n", filepath.Base(filePath), err)
			report.Failures[filePath] = err
			continue
		}
		report.Manifests = append(report.Manifests, manifest)
	}

	// 4. Generate the project skeleton.
	if err := writeSkeleton(absOutput, cfg); err != nil {
		return report, fmt.Errorf("failed to write project files: %w", err)
	}

	fmt.Println("✅ Server project created!")
	fmt.Printf("   - Run it with: lfsbypass serve %s\n", absOutput)
	return report, nil
}

// splitOne splits a single staged file and, unless keepOriginal is set,
// removes it from the static tree once its manifest exists.
func splitOne(splitter *lib.Splitter, filePath, chunksDir string, keepOriginal bool) (*types.Manifest, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	fmt.Printf("   - Splitting %s (%s)...\n", filepath.Base(filePath), humanize.IBytes(uint64(info.Size())))

	manifest, err := splitter.Split(filePath, chunksDir)
	if err != nil {
		return nil, err
	}
	if !keepOriginal {
		if err := os.Remove(filePath); err != nil {
			return manifest, fmt.Errorf("split succeeded but original could not be removed: %w", err)
		}
	}
	fmt.Printf("     ✓ %d chunks\n", len(manifest.Chunks))
	return manifest, nil
}

func writeSkeleton(projectDir string, cfg *lib.Config) error {
	if err := lib.WriteConfig(projectDir, cfg); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(projectDir, "README.md"), []byte(projectReadme(filepath.Base(projectDir), cfg)), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(projectDir, ".gitignore"), []byte(projectGitignore), 0644)
}

const projectGitignore = `*.log
.env
.DS_Store
*.manifest.json.tmp-*
`

func projectReadme(projectName string, cfg *lib.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", projectName)
	b.WriteString("Unity WebGL build served with chunked large-file support.\n\n")
	b.WriteString("## Layout\n\n")
	fmt.Fprintf(&b, "- **%s/**: the WebGL build, minus files split into chunks\n", lib.PublicDirName)
	fmt.Fprintf(&b, "- **%s/**: chunk files and one `<file>%s` manifest per split file (files over %d MB)\n", lib.ChunksDirName, lib.ManifestSuffix, cfg.ThresholdMB)
	fmt.Fprintf(&b, "- **%s**: chunk size, cache lifetime and listen address\n\n", lib.ConfigFileName)
	b.WriteString("## Running\n\n")
	b.WriteString("```bash\nlfsbypass serve .\n```\n\n")
	fmt.Fprintf(&b, "The server listens on `%s` unless `--addr` or `PORT` says otherwise.\n\n", cfg.Addr)
	b.WriteString("## How it works\n\n")
	fmt.Fprintf(&b, "- Large files are split into %s chunks, each small enough to commit without Git LFS\n", humanize.IBytes(uint64(cfg.ChunkSize)))
	b.WriteString("- A request for a split file is answered with the reassembled, hash-verified content\n")
	fmt.Fprintf(&b, "- Reassembled files are kept in memory for %s\n", cfg.CacheTTL())
	return b.String()
}
