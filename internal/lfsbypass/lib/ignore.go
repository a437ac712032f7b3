package lib

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/denormal/go-gitignore"
)

// defaultIgnorePatterns are never staged or split.
var defaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	IgnoreFilename,
}

// IgnoreRules decides which paths of a build tree are left out of staging
// and of the large-file scan. Rules are read once, when loaded.
type IgnoreRules struct {
	root string

	// The gitignore matcher is not safe for concurrent use.
	mu      sync.Mutex
	matcher gitignore.GitIgnore
}

// LoadIgnoreRules compiles the default patterns plus root/.lfsignore. A
// missing or unreadable .lfsignore leaves only the defaults.
func LoadIgnoreRules(root string) *IgnoreRules {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	patterns := append([]string(nil), defaultIgnorePatterns...)
	if content, err := os.ReadFile(filepath.Join(root, IgnoreFilename)); err == nil {
		patterns = append(patterns, strings.Split(string(content), "\n")...)
	}

	return &IgnoreRules{
		root: root,
		matcher: gitignore.New(
			strings.NewReader(strings.Join(normalizePatterns(patterns), "\n")),
			root,
			func(gitignore.Error) bool { return true },
		),
	}
}

// normalizePatterns drops comments and blank lines, accepts Windows
// separators, and widens "dir/" so that the directory's contents match too.
func normalizePatterns(raw []string) []string {
	var out []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		p = strings.ReplaceAll(p, "\\", "/")
		if strings.HasSuffix(p, "/") && !strings.HasSuffix(p, "**/") {
			// Keep the directory pattern for the directory itself.
			out = append(out, p)
			p += "**"
		}
		out = append(out, p)
	}
	return out
}

// Ignored reports whether path, a file or directory below the rules' root,
// is excluded. Paths outside the root are never ignored.
func (r *IgnoreRules) Ignored(path string, isDir bool) bool {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	match := r.matcher.Relative(filepath.ToSlash(rel), isDir)
	return match != nil && match.Ignore()
}
