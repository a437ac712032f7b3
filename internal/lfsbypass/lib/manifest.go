package lib

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/types"
)

// ManifestSuffix is appended to an original file name to form the name of
// its manifest.
const ManifestSuffix = ".manifest.json"

// chunkInfix separates the original file name from the byte range in a chunk
// file name.
const chunkInfix = ".chunk."

// ErrMalformedManifest is returned when a manifest cannot describe a
// reassemblable file.
var ErrMalformedManifest = errors.New("malformed manifest")

// ManifestFileName returns the manifest name for an original file name.
func ManifestFileName(fileName string) string {
	return fileName + ManifestSuffix
}

// ManifestPath returns where the manifest for fileName lives in chunksDir.
// This path is also the cache identity of the reassembled file.
func ManifestPath(chunksDir, fileName string) string {
	return filepath.Join(chunksDir, ManifestFileName(fileName))
}

// ChunkFileName returns the self-describing name of the chunk covering
// [start, end) of fileName.
func ChunkFileName(fileName string, start, end int64) string {
	return fmt.Sprintf("%s%s%d-%d", fileName, chunkInfix, start, end)
}

// IsChunkFileName reports whether name follows the chunk naming convention.
func IsChunkFileName(name string) bool {
	i := strings.LastIndex(name, chunkInfix)
	if i <= 0 {
		return false
	}
	var start, end int64
	_, err := fmt.Sscanf(name[i+len(chunkInfix):], "%d-%d", &start, &end)
	return err == nil && end >= start
}

// ReadManifest reads and validates the manifest at path.
func ReadManifest(path string) (*types.Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var manifest types.Manifest
	if err := json.Unmarshal(content, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedManifest, filepath.Base(path), err)
	}
	if err := ValidateManifest(&manifest); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &manifest, nil
}

// WriteManifest writes manifest to chunksDir under its conventional name and
// returns the path. The file is renamed into place so readers never see a
// partial manifest.
func WriteManifest(chunksDir string, manifest *types.Manifest) (string, error) {
	if manifest.Chunks == nil {
		manifest.Chunks = []types.ChunkDescriptor{}
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", err
	}

	finalPath := ManifestPath(chunksDir, manifest.FileName)
	tmp, err := os.CreateTemp(chunksDir, ManifestFileName(manifest.FileName)+".tmp-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return finalPath, nil
}

// ValidateManifest checks the structural invariants of a manifest: chunk
// paths stay inside the manifest directory and the chunks, ordered by start,
// tile [0, originalSize) with no gaps or overlaps.
func ValidateManifest(m *types.Manifest) error {
	if m.FileName == "" {
		return fmt.Errorf("%w: missing fileName", ErrMalformedManifest)
	}
	if m.OriginalSize < 0 {
		return fmt.Errorf("%w: negative originalSize %d", ErrMalformedManifest, m.OriginalSize)
	}
	if !isHexDigest(m.Hash) {
		return fmt.Errorf("%w: hash %q is not a hex %s digest", ErrMalformedManifest, m.Hash, HashAlgorithm)
	}

	sorted := make([]types.ChunkDescriptor, len(m.Chunks))
	copy(sorted, m.Chunks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var next int64
	for _, c := range sorted {
		if c.Path == "" || c.Path != filepath.Base(c.Path) || c.Path == ".." || c.Path == "." {
			return fmt.Errorf("%w: invalid chunk path %q", ErrMalformedManifest, c.Path)
		}
		if c.Start < 0 || c.Size < 0 {
			return fmt.Errorf("%w: chunk %s has negative start or size", ErrMalformedManifest, c.Path)
		}
		if c.End() > m.OriginalSize {
			return fmt.Errorf("%w: chunk %s ends at %d beyond originalSize %d", ErrMalformedManifest, c.Path, c.End(), m.OriginalSize)
		}
		if c.Start != next {
			if c.Start < next {
				return fmt.Errorf("%w: chunk %s overlaps previous chunk at offset %d", ErrMalformedManifest, c.Path, c.Start)
			}
			return fmt.Errorf("%w: gap before chunk %s at offset %d", ErrMalformedManifest, c.Path, next)
		}
		next = c.End()
	}
	if next != m.OriginalSize {
		return fmt.Errorf("%w: chunks cover %d of %d bytes", ErrMalformedManifest, next, m.OriginalSize)
	}
	return nil
}

// ManifestDetail summarizes a manifest found in a chunk directory.
type ManifestDetail struct {
	Path         string
	FileName     string
	OriginalSize int64
	Hash         string
	ChunkCount   int
}

// ListManifests reads every manifest in chunksDir and returns them sorted by
// file name. Unreadable or invalid manifests are skipped.
func ListManifests(chunksDir string) ([]ManifestDetail, error) {
	dirEntries, err := os.ReadDir(chunksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ManifestDetail{}, nil
		}
		return nil, err
	}

	details := []ManifestDetail{}
	for _, entry := range dirEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ManifestSuffix) {
			continue
		}
		path := filepath.Join(chunksDir, entry.Name())
		manifest, err := ReadManifest(path)
		if err != nil {
			continue
		}
		details = append(details, ManifestDetail{
			Path:         path,
			FileName:     manifest.FileName,
			OriginalSize: manifest.OriginalSize,
			Hash:         manifest.Hash,
			ChunkCount:   len(manifest.Chunks),
		})
	}

	sort.Slice(details, func(i, j int) bool {
		return details[i].FileName < details[j].FileName
	})
	return details, nil
}

// FindManifest resolves a file name, or an unambiguous prefix of one, to a
// manifest in chunksDir.
func FindManifest(chunksDir, identifier string) (*ManifestDetail, error) {
	details, err := ListManifests(chunksDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifests: %w", err)
	}
	if len(details) == 0 {
		return nil, fmt.Errorf("no manifests found in %s", chunksDir)
	}

	var matches []*ManifestDetail
	for i := range details {
		if details[i].FileName == identifier {
			return &details[i], nil
		}
		if strings.HasPrefix(details[i].FileName, identifier) {
			matches = append(matches, &details[i])
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no chunked file matching '%s'", identifier)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous identifier '%s' matches %d chunked files", identifier, len(matches))
	}
}
