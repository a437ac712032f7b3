package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
)

// maxVerifyWorkers bounds how many files are held in memory at once by Verify.
const maxVerifyWorkers = 4

// Restore is the main function for the 'restore' command. It reassembles the
// chunked file matching identifier, verifying every chunk, and writes it to
// outputPath (a file, or a directory to place it in). An empty outputPath
// writes into the current directory.
func Restore(projectDir, identifier, outputPath string) (string, error) {
	chunksDir, err := projectChunksDir(projectDir)
	if err != nil {
		return "", err
	}

	detail, err := lib.FindManifest(chunksDir, identifier)
	if err != nil {
		return "", fmt.Errorf("failed to find chunked file %s: %w", identifier, err)
	}

	if outputPath == "" {
		outputPath = "."
	}
	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		outputPath = filepath.Join(outputPath, detail.FileName)
	}

	fmt.Printf("💧 Restoring %s to \"%s\"...\n", detail.FileName, outputPath)

	content, err := lib.FileReassembler{VerifyChunks: true}.Reassemble(detail.Path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	fmt.Printf("✅ Restore complete! (%s)\n", humanize.IBytes(uint64(len(content))))
	return outputPath, nil
}

// verifyResult is the outcome of checking one manifest.
type verifyResult struct {
	FileName string
	Err      error
}

// Verify reassembles every chunked file in the project with per-chunk
// verification and returns the files that failed, keyed by file name.
func Verify(projectDir string) (map[string]error, error) {
	chunksDir, err := projectChunksDir(projectDir)
	if err != nil {
		return nil, err
	}
	manifests, err := lib.ListManifests(chunksDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifests: %w", err)
	}

	fmt.Printf("🔍 Verifying %d chunked files in \"%s\"...\n", len(manifests), chunksDir)

	jobs := make(chan lib.ManifestDetail, len(manifests))
	results := make(chan verifyResult, len(manifests))
	var wg sync.WaitGroup
	numWorkers := min(runtime.NumCPU(), maxVerifyWorkers)

	reassembler := lib.FileReassembler{VerifyChunks: true}
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				_, err := reassembler.Reassemble(m.Path)
				results <- verifyResult{FileName: m.FileName, Err: err}
			}
		}()
	}

	for _, m := range manifests {
		jobs <- m
	}
	close(jobs)
	wg.Wait()
	close(results)

	failures := make(map[string]error)
	for res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "   ! %s: %v\n", res.FileName, res.Err)
			failures[res.FileName] = res.Err
			continue
		}
		fmt.Printf("   - %s ok\n", res.FileName)
	}

	if len(failures) == 0 {
		fmt.Println("✅ All chunked files verified.")
	}
	return failures, nil
}

func projectChunksDir(projectDir string) (string, error) {
	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return "", fmt.Errorf("could not resolve project path: %w", err)
	}
	cfg, err := lib.LoadConfig(absProject)
	if err != nil {
		return "", err
	}
	return cfg.ResolvePaths(absProject).ChunksDir, nil
}
