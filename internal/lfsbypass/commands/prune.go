package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/types"
)

// PruneOptions holds the configuration for the prune command.
type PruneOptions struct {
	// DryRun reports what would be removed without removing it.
	DryRun bool
}

// PruneReport lists what a prune removed.
type PruneReport struct {
	Removed        []string
	ReclaimedBytes int64
}

// markReferencedChunks returns every chunk path named by any manifest in
// chunksDir. Manifests are decoded without validation so that a damaged
// manifest still protects the chunks it names.
func markReferencedChunks(chunksDir string, entries []os.DirEntry) (map[string]bool, error) {
	live := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), lib.ManifestSuffix) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(chunksDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest %s: %w", entry.Name(), err)
		}
		var manifest types.Manifest
		if err := json.Unmarshal(content, &manifest); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping unreadable manifest %s: %v\n", entry.Name(), err)
			continue
		}
		for _, c := range manifest.Chunks {
			live[c.Path] = true
		}
	}
	return live, nil
}

// isStrayManifestTemp matches temporary files left by an interrupted manifest write.
func isStrayManifestTemp(name string) bool {
	return strings.Contains(name, lib.ManifestSuffix+".tmp-")
}

// Prune is the main function for the 'prune' command. It removes chunk files
// that no manifest references and leftovers of interrupted manifest writes.
func Prune(projectDir string, options PruneOptions) (*PruneReport, error) {
	chunksDir, err := projectChunksDir(projectDir)
	if err != nil {
		return nil, err
	}

	fmt.Printf("🧹 Starting prune for \"%s\"...\n", chunksDir)

	entries, err := os.ReadDir(chunksDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No chunk directory to prune.")
			return &PruneReport{}, nil
		}
		return nil, err
	}

	// 1. Mark Phase
	fmt.Println("   - Marking chunks referenced by manifests...")
	live, err := markReferencedChunks(chunksDir, entries)
	if err != nil {
		return nil, err
	}

	// 2. Sweep Phase
	fmt.Println("   - Sweeping unreferenced chunks...")
	report := &PruneReport{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || live[name] {
			continue
		}
		if !lib.IsChunkFileName(name) && !isStrayManifestTemp(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !options.DryRun {
			if err := os.Remove(filepath.Join(chunksDir, name)); err != nil {
				return report, fmt.Errorf("failed to remove %s: %w", name, err)
			}
		}
		report.Removed = append(report.Removed, name)
		report.ReclaimedBytes += info.Size()
	}
	sort.Strings(report.Removed)

	verb := "Deleted"
	if options.DryRun {
		verb = "Would delete"
	}
	fmt.Println("✅ Prune complete!")
	fmt.Printf("   - %s %d file(s), %s.\n", verb, len(report.Removed), humanize.IBytes(uint64(report.ReclaimedBytes)))
	return report, nil
}
