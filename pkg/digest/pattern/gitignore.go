package pattern

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	gitignore "github.com/monochromegane/go-gitignore"
)

// Gitignore matches paths against the .gitignore file at a scan root.
type Gitignore struct {
	matcher gitignore.IgnoreMatcher
	path    string
}

// LoadGitignore reads root/.gitignore. It returns nil and no error when the
// file does not exist. Nested .gitignore files are not consulted.
func LoadGitignore(root string) (*Gitignore, error) {
	p := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking %s: %w", p, err)
	}

	m, err := gitignore.NewGitIgnore(p, root)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	return &Gitignore{matcher: m, path: p}, nil
}

// Ignored reports whether the absolute path is ignored. A nil Gitignore
// ignores nothing.
func (g *Gitignore) Ignored(path string, isDir bool) bool {
	if g == nil {
		return false
	}
	return g.matcher.Match(path, isDir)
}

// Path returns the location of the loaded .gitignore file.
func (g *Gitignore) Path() string {
	if g == nil {
		return ""
	}
	return g.path
}
