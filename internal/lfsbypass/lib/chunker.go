// Package lib contains the core, reusable services for the lfsbypass application.
package lib

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/types"
)

// Splitter divides files into fixed-size chunks. A single chunk size applies
// to every file it splits.
type Splitter struct {
	ChunkSize int64
}

// NewSplitter creates a splitter with the given chunk size in bytes. A
// non-positive size selects DefaultChunkSize.
func NewSplitter(chunkSize int64) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Splitter{ChunkSize: chunkSize}
}

// windowSize is ChunkSize, or DefaultChunkSize for a zero-value Splitter.
func (s *Splitter) windowSize() int64 {
	if s.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return s.ChunkSize
}

// Chunks streams r to fn in ChunkSize windows; the final chunk may be
// smaller. Chunk.Data is only valid until fn returns.
func (s *Splitter) Chunks(r io.Reader, fn func(types.Chunk) error) error {
	buf := make([]byte, s.windowSize())
	var offset int64
	for {
		n, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return nil
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return err
		}
		data := buf[:n]
		if err := fn(types.Chunk{Start: offset, Hash: GetHash(data), Data: data}); err != nil {
			return err
		}
		offset += int64(n)
		if err == io.ErrUnexpectedEOF {
			return nil
		}
	}
}

// Split writes filePath as chunk files into chunksDir, followed by its
// manifest, and returns the manifest.
//
// The manifest is written only after every chunk has been written. When
// filePath was split before, the old manifest is removed first and chunk
// files it referenced that are no longer used are deleted afterwards.
func (s *Splitter) Split(filePath, chunksDir string) (*types.Manifest, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", filePath)
	}

	if err := os.MkdirAll(chunksDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}

	fileName := filepath.Base(filePath)
	manifestPath := ManifestPath(chunksDir, fileName)

	staleChunks, err := retireManifest(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to remove previous manifest for %s: %w", fileName, err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// The whole-file digest is computed in the same pass as the chunks so it
	// always describes exactly the bytes that were written.
	fileHasher := sha256.New()
	manifest := &types.Manifest{
		FileName: fileName,
		Chunks:   []types.ChunkDescriptor{},
	}

	err = s.Chunks(io.TeeReader(file, fileHasher), func(c types.Chunk) error {
		size := int64(len(c.Data))
		name := ChunkFileName(fileName, c.Start, c.Start+size)
		if err := os.WriteFile(filepath.Join(chunksDir, name), c.Data, 0644); err != nil {
			return fmt.Errorf("failed to write chunk %s: %w", name, err)
		}
		manifest.Chunks = append(manifest.Chunks, types.ChunkDescriptor{
			Path:  name,
			Start: c.Start,
			Size:  size,
			Hash:  c.Hash,
		})
		manifest.OriginalSize += size
		return nil
	})
	if err != nil {
		return nil, err
	}
	manifest.Hash = hex.EncodeToString(fileHasher.Sum(nil))

	if _, err := WriteManifest(chunksDir, manifest); err != nil {
		return nil, fmt.Errorf("failed to write manifest for %s: %w", fileName, err)
	}

	for _, c := range manifest.Chunks {
		delete(staleChunks, c.Path)
	}
	for name := range staleChunks {
		if err := os.Remove(filepath.Join(chunksDir, name)); err != nil && !os.IsNotExist(err) {
			return manifest, fmt.Errorf("failed to remove stale chunk %s: %w", name, err)
		}
	}

	return manifest, nil
}

// retireManifest deletes an existing manifest and returns the chunk files it
// referenced. A missing or unreadable manifest yields no chunks.
func retireManifest(manifestPath string) (map[string]struct{}, error) {
	chunks := make(map[string]struct{})
	if old, err := ReadManifest(manifestPath); err == nil {
		for _, c := range old.Chunks {
			chunks[c.Path] = struct{}{}
		}
	}
	if err := os.Remove(manifestPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return chunks, nil
}
