// Package server serves a generated project over HTTP, reassembling chunked
// files on demand.
package server

import (
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
	"go.uber.org/zap"
)

const (
	contentTypeWasm       = "application/wasm"
	contentTypeOctet      = "application/octet-stream"
	contentTypeJavaScript = "application/javascript"
)

// BufferSource returns the reassembled content for a manifest path.
// *lib.ReassemblyCache satisfies it.
type BufferSource interface {
	Get(manifestPath string) ([]byte, error)
}

// delivery is the outcome of trying to serve a request from chunks: either
// served with body, or not served and the request falls through.
type delivery struct {
	served bool
	body   []byte
}

// ChunkedFiles returns middleware that answers GET and HEAD requests for
// files that have a manifest in chunksDir with the reassembled content.
// Requests for anything else, and requests whose chunk set is broken, are
// passed to next unchanged.
func ChunkedFiles(chunksDir string, source BufferSource, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			fileName := path.Base(r.URL.Path)
			if fileName == "/" || fileName == "." {
				next.ServeHTTP(w, r)
				return
			}
			manifestPath := lib.ManifestPath(chunksDir, fileName)
			if _, err := os.Stat(manifestPath); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			logger.Info("chunked file requested", zap.String("file", fileName))

			d := attempt(source, manifestPath, fileName, logger)
			if !d.served {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Type", chunkedContentType(fileName))
			w.Header().Set("Content-Length", strconv.Itoa(len(d.body)))
			w.WriteHeader(http.StatusOK)
			if r.Method == http.MethodGet {
				if _, err := w.Write(d.body); err != nil {
					logger.Warn("writing chunked response", zap.String("file", fileName), zap.Error(err))
					return
				}
			}
			logger.Info("served chunked file",
				zap.String("file", fileName),
				zap.String("size", humanize.IBytes(uint64(len(d.body)))),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// attempt obtains the reassembled buffer. Any failure is logged and turned
// into a fall-through.
func attempt(source BufferSource, manifestPath, fileName string, logger *zap.Logger) delivery {
	body, err := source.Get(manifestPath)
	if err != nil {
		logger.Error("failed to serve chunked file", zap.String("file", fileName), zap.Error(err))
		return delivery{}
	}
	return delivery{served: true, body: body}
}

func chunkedContentType(fileName string) string {
	if strings.HasSuffix(fileName, ".wasm") {
		return contentTypeWasm
	}
	return contentTypeOctet
}

// StaticFiles serves publicDir, tagging Unity WebGL artifacts with the
// headers browsers need.
func StaticFiles(publicDir string) http.Handler {
	fileServer := http.FileServer(http.Dir(publicDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		switch {
		case strings.HasSuffix(p, ".wasm"):
			w.Header().Set("Content-Type", contentTypeWasm)
		case strings.HasSuffix(p, ".data"):
			w.Header().Set("Content-Type", contentTypeOctet)
		case strings.HasSuffix(p, ".js.gz"):
			w.Header().Set("Content-Type", contentTypeJavaScript)
			w.Header().Set("Content-Encoding", "gzip")
		}
		fileServer.ServeHTTP(w, r)
	})
}
