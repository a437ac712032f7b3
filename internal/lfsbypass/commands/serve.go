package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/server"
	"go.uber.org/zap"
)

// ServeOptions holds the configuration for the serve command.
type ServeOptions struct {
	ProjectDir string
	// Addr overrides the configured listen address when set.
	Addr   string
	Logger *zap.Logger
}

// NewProjectServer loads the project configuration and builds the server
// without starting it.
func NewProjectServer(opts ServeOptions) (*server.Server, error) {
	absProject, err := filepath.Abs(opts.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve absolute path for %s: %w", opts.ProjectDir, err)
	}
	cfg, err := lib.LoadConfig(absProject)
	if err != nil {
		return nil, err
	}
	paths := cfg.ResolvePaths(absProject)
	if _, err := os.Stat(paths.PublicDir); err != nil {
		return nil, fmt.Errorf("public directory not found: %w", err)
	}

	addr := cfg.Addr
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	if opts.Addr != "" {
		addr = opts.Addr
	}

	return server.New(server.Options{
		Addr:      addr,
		PublicDir: paths.PublicDir,
		ChunksDir: paths.ChunksDir,
		CacheTTL:  cfg.CacheTTL(),
		Logger:    opts.Logger,
	}), nil
}

// Serve runs the project server until ctx is cancelled.
func Serve(ctx context.Context, opts ServeOptions) error {
	srv, err := NewProjectServer(opts)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
