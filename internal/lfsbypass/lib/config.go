// Package lib contains the core, reusable services for the lfsbypass application.
package lib

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// --- Constants ---

// PublicDirName is the directory of a generated project holding the staged
// build tree that is served as static files.
const PublicDirName = "public"

// ChunksDirName is the directory holding chunk files and their manifests.
// Manifests and chunks are colocated.
const ChunksDirName = "chunks"

// ConfigFileName is the name of the project configuration file written by
// `build` and read by `serve`.
const ConfigFileName = "lfsbypass.yaml"

// IgnoreFilename is the name of the file containing user-defined ignore patterns.
const IgnoreFilename = ".lfsignore"

const (
	// DefaultChunkSize is the segment size applied to every split file (50 MiB).
	DefaultChunkSize int64 = 50 * 1024 * 1024

	// DefaultThresholdMB is the size above which a file is split.
	DefaultThresholdMB int64 = 100

	// DefaultCacheTTL bounds how long a reassembled buffer is reused.
	DefaultCacheTTL = 30 * time.Minute

	// DefaultAddr is the listen address of the generated server.
	DefaultAddr = ":3000"
)

// --- Path Helper Functions ---

// GetPublicDir returns the static root of a generated project.
func GetPublicDir(projectDir string) string {
	return filepath.Join(projectDir, PublicDirName)
}

// GetChunksDir returns the chunk directory of a generated project.
func GetChunksDir(projectDir string) string {
	return filepath.Join(projectDir, ChunksDirName)
}

// GetConfigPath returns the path of the project configuration file.
func GetConfigPath(projectDir string) string {
	return filepath.Join(projectDir, ConfigFileName)
}

// ProjectPaths holds the structured paths of a generated project.
type ProjectPaths struct {
	ProjectDir string
	PublicDir  string
	ChunksDir  string
}

// EnsureProjectDirs ensures that the project directories exist, creating them
// if necessary. It is idempotent.
func EnsureProjectDirs(projectDir string) (ProjectPaths, error) {
	paths := ProjectPaths{
		ProjectDir: projectDir,
		PublicDir:  GetPublicDir(projectDir),
		ChunksDir:  GetChunksDir(projectDir),
	}
	if err := os.MkdirAll(paths.PublicDir, 0755); err != nil {
		return ProjectPaths{}, err
	}
	if err := os.MkdirAll(paths.ChunksDir, 0755); err != nil {
		return ProjectPaths{}, err
	}
	return paths, nil
}

// --- Project configuration ---

// Config is the contents of lfsbypass.yaml. Relative directories are
// resolved against the directory holding the file.
type Config struct {
	// ThresholdMB is the size, in MB, above which a file is split.
	ThresholdMB int64 `yaml:"threshold_mb"`

	// ChunkSize is the segment size in bytes.
	ChunkSize int64 `yaml:"chunk_size"`

	// CacheTTLMillis is the lifetime of a reassembled buffer in the server cache.
	CacheTTLMillis int64 `yaml:"cache_ttl_ms"`

	PublicDir string `yaml:"public_dir"`
	ChunksDir string `yaml:"chunks_dir"`
	Addr      string `yaml:"addr"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		ThresholdMB:    DefaultThresholdMB,
		ChunkSize:      DefaultChunkSize,
		CacheTTLMillis: DefaultCacheTTL.Milliseconds(),
		PublicDir:      PublicDirName,
		ChunksDir:      ChunksDirName,
		Addr:           DefaultAddr,
	}
}

// LoadConfig reads lfsbypass.yaml from projectDir over the defaults. A missing
// file is not an error.
func LoadConfig(projectDir string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(GetConfigPath(projectDir))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

// WriteConfig writes cfg as lfsbypass.yaml in projectDir.
func WriteConfig(projectDir string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(GetConfigPath(projectDir), data, 0644)
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.ThresholdMB <= 0 {
		return fmt.Errorf("threshold_mb must be positive, got %d", c.ThresholdMB)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.CacheTTLMillis <= 0 {
		return fmt.Errorf("cache_ttl_ms must be positive, got %d", c.CacheTTLMillis)
	}
	return nil
}

// ThresholdBytes returns the split threshold in bytes.
func (c *Config) ThresholdBytes() int64 {
	return c.ThresholdMB * 1024 * 1024
}

// CacheTTL returns the cache lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMillis) * time.Millisecond
}

// ResolvePaths returns the public and chunk directories relative to projectDir.
func (c *Config) ResolvePaths(projectDir string) ProjectPaths {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(projectDir, p)
	}
	return ProjectPaths{
		ProjectDir: projectDir,
		PublicDir:  resolve(c.PublicDir),
		ChunksDir:  resolve(c.ChunksDir),
	}
}
