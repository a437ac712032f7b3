package lib

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/types"
)

// ErrIntegrity is matched by every *IntegrityError.
var ErrIntegrity = errors.New("integrity check failed")

// IntegrityError reports reassembled content that does not match its
// manifest. Chunk is empty when the whole-file digest failed.
type IntegrityError struct {
	ManifestPath string
	Chunk        string
	Expected     string
	Actual       string
}

func (e *IntegrityError) Error() string {
	if e.Chunk != "" {
		return fmt.Sprintf("integrity check failed for %s: chunk %s: expected %s, got %s",
			filepath.Base(e.ManifestPath), e.Chunk, e.Expected, e.Actual)
	}
	return fmt.Sprintf("integrity check failed for %s: expected hash %s, got %s",
		filepath.Base(e.ManifestPath), e.Expected, e.Actual)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// Reassembler rebuilds the original content described by a manifest.
type Reassembler interface {
	Reassemble(manifestPath string) ([]byte, error)
}

// FileReassembler reads chunk files from the manifest's directory.
type FileReassembler struct {
	// VerifyChunks checks each chunk's digest before placing it. The
	// whole-file digest is always checked.
	VerifyChunks bool
}

// Reassemble reassembles manifestPath with the default FileReassembler.
func Reassemble(manifestPath string) ([]byte, error) {
	return FileReassembler{}.Reassemble(manifestPath)
}

// Reassemble places every chunk at its manifest offset in a buffer of exactly
// originalSize bytes and returns it only if its digest matches the manifest.
func (r FileReassembler) Reassemble(manifestPath string) ([]byte, error) {
	manifest, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	chunksDir := filepath.Dir(manifestPath)
	// The manifest alone cannot be trusted to size the buffer.
	if err := checkChunkSizes(manifestPath, chunksDir, manifest.Chunks); err != nil {
		return nil, err
	}
	buffer := make([]byte, manifest.OriginalSize)

	for _, chunk := range manifest.Chunks {
		if err := r.placeChunk(manifestPath, chunksDir, chunk, buffer); err != nil {
			return nil, err
		}
	}

	if actual := GetHash(buffer); actual != manifest.Hash {
		return nil, &IntegrityError{
			ManifestPath: manifestPath,
			Expected:     manifest.Hash,
			Actual:       actual,
		}
	}
	return buffer, nil
}

// checkChunkSizes stats every chunk file and fails on the first one whose
// length differs from its descriptor.
func checkChunkSizes(manifestPath, chunksDir string, chunks []types.ChunkDescriptor) error {
	for _, chunk := range chunks {
		info, err := os.Stat(filepath.Join(chunksDir, chunk.Path))
		if err != nil {
			return fmt.Errorf("failed to stat chunk %s: %w", chunk.Path, err)
		}
		if err := checkChunkSize(manifestPath, chunk, info.Size()); err != nil {
			return err
		}
	}
	return nil
}

func checkChunkSize(manifestPath string, chunk types.ChunkDescriptor, actual int64) error {
	if actual == chunk.Size {
		return nil
	}
	return &IntegrityError{
		ManifestPath: manifestPath,
		Chunk:        chunk.Path,
		Expected:     fmt.Sprintf("%d bytes", chunk.Size),
		Actual:       fmt.Sprintf("%d bytes", actual),
	}
}

// placeChunk reads one chunk file straight into its slot of buffer.
func (r FileReassembler) placeChunk(manifestPath, chunksDir string, chunk types.ChunkDescriptor, buffer []byte) error {
	file, err := os.Open(filepath.Join(chunksDir, chunk.Path))
	if err != nil {
		return fmt.Errorf("failed to open chunk %s: %w", chunk.Path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat chunk %s: %w", chunk.Path, err)
	}
	// Re-checked: the file may have changed since checkChunkSizes.
	if err := checkChunkSize(manifestPath, chunk, info.Size()); err != nil {
		return err
	}

	slot := buffer[chunk.Start:chunk.End()]
	if _, err := io.ReadFull(file, slot); err != nil {
		return fmt.Errorf("failed to read chunk %s: %w", chunk.Path, err)
	}

	if r.VerifyChunks {
		if actual := GetHash(slot); actual != chunk.Hash {
			return &IntegrityError{
				ManifestPath: manifestPath,
				Chunk:        chunk.Path,
				Expected:     chunk.Hash,
				Actual:       actual,
			}
		}
	}
	return nil
}
