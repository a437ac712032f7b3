package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Options describes what a Server serves.
type Options struct {
	Addr      string
	PublicDir string
	ChunksDir string
	CacheTTL  time.Duration
	Logger    *zap.Logger
}

// Server is the HTTP front of a generated project.
type Server struct {
	opts  Options
	cache *lib.ReassemblyCache
	http  *http.Server
}

// New builds a Server with its reassembly cache.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Addr == "" {
		opts.Addr = lib.DefaultAddr
	}
	cache := lib.NewReassemblyCache(lib.FileReassembler{}, opts.CacheTTL, lib.WithLogger(opts.Logger))
	s := &Server{opts: opts, cache: cache}
	s.http = &http.Server{
		Addr:        opts.Addr,
		Handler:     NewRouter(opts.PublicDir, opts.ChunksDir, cache, opts.Logger),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// NewRouter wires the chunk-aware middleware in front of static delivery.
func NewRouter(publicDir, chunksDir string, source BufferSource, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(ChunkedFiles(chunksDir, source, logger))

	r.Handle("/*", StaticFiles(publicDir))
	return r
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("server listening",
			zap.String("addr", s.opts.Addr),
			zap.String("public", s.opts.PublicDir),
			zap.String("chunks", s.opts.ChunksDir),
		)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.opts.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
