package lib

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// CopyFile copies a file from src to dst. If dst does not exist, it is created.
// If it does exist, it is overwritten. The permission bits of src are kept.
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	// Ensure the data is written to stable storage.
	return destFile.Sync()
}

// CopyTree recursively copies the directory src into dst. Directories whose
// base name is in excludeDirs, and paths matched by src/.lfsignore, are
// skipped. It returns the number of files copied.
func CopyTree(src, dst string, excludeDirs []string) (int, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", src)
	}

	rules := LoadIgnoreRules(src)
	copied := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == src {
			return os.MkdirAll(dst, 0755)
		}

		if d.IsDir() && slices.Contains(excludeDirs, d.Name()) {
			return filepath.SkipDir
		}
		if rules.Ignored(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type().IsRegular():
			if err := CopyFile(path, target); err != nil {
				return fmt.Errorf("failed to copy %s: %w", rel, err)
			}
			copied++
		}
		return nil
	})
	return copied, err
}

// FindLargeFiles walks directory and returns every regular file strictly
// larger than threshold bytes. Directories named ChunksDirName and paths
// matched by directory/.lfsignore are skipped. A missing directory yields no
// files.
func FindLargeFiles(directory string, threshold int64) ([]string, error) {
	largeFiles := []string{}
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		return largeFiles, nil
	}

	rules := LoadIgnoreRules(directory)
	err := filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == directory {
			return nil
		}
		if d.IsDir() && d.Name() == ChunksDirName {
			return filepath.SkipDir
		}
		if rules.Ignored(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > threshold {
			largeFiles = append(largeFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return largeFiles, nil
}
