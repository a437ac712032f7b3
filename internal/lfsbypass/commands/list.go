package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
)

// getChunkStoreSize calculates the total size of everything in chunksDir.
func getChunkStoreSize(chunksDir string) (int64, error) {
	dirEntries, err := os.ReadDir(chunksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var totalSize int64
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		totalSize += info.Size()
	}
	return totalSize, nil
}

// List is the main function for the 'list' command.
func List(projectDir string) error {
	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("could not resolve absolute path for %s: %w", projectDir, err)
	}
	if _, err := os.Stat(absProject); os.IsNotExist(err) {
		return fmt.Errorf("project directory does not exist: %s", absProject)
	}
	cfg, err := lib.LoadConfig(absProject)
	if err != nil {
		return err
	}
	chunksDir := cfg.ResolvePaths(absProject).ChunksDir

	manifests, err := lib.ListManifests(chunksDir)
	if err != nil {
		return fmt.Errorf("failed to read manifests: %w", err)
	}
	if len(manifests) == 0 {
		fmt.Printf("No chunked files found in \"%s\".\n", chunksDir)
		return nil
	}

	totalStored, err := getChunkStoreSize(chunksDir)
	if err != nil {
		return fmt.Errorf("failed to calculate stored size: %w", err)
	}

	fmt.Printf("Chunked files in \"%s\":\n", chunksDir)
	fmt.Printf("%-40s %-12s %-8s %s\n", "FILE", "SIZE", "CHUNKS", "HASH")
	fmt.Printf("%-40s %-12s %-8s %s\n", "====", "====", "======", "====")
	for _, m := range manifests {
		fmt.Printf("%-40s %-12s %-8d %s\n",
			m.FileName,
			humanize.IBytes(uint64(m.OriginalSize)),
			m.ChunkCount,
			m.Hash[:12],
		)
	}
	fmt.Printf("\nTotal size of chunk directory: %s\n", humanize.IBytes(uint64(totalStored)))
	return nil
}
