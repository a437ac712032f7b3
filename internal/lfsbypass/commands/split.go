package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/types"
)

// Split is the main function for the 'split' command. It splits one file
// into chunksDir and prints the resulting layout.
func Split(filePath, chunksDir string, chunkSize int64) (*types.Manifest, error) {
	manifest, err := lib.NewSplitter(chunkSize).Split(filePath, chunksDir)
	if err != nil {
		return nil, fmt.Errorf("failed to split %s: %w", filePath, err)
	}

	fmt.Printf("✂️  Split %s (%s) into %d chunks\n",
		manifest.FileName, humanize.IBytes(uint64(manifest.OriginalSize)), len(manifest.Chunks))
	for _, c := range manifest.Chunks {
		fmt.Printf("   - %-48s %s\n", c.Path, humanize.IBytes(uint64(c.Size)))
	}
	fmt.Printf("   - Manifest: %s\n", lib.ManifestPath(chunksDir, manifest.FileName))
	return manifest, nil
}
