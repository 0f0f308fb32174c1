package ingest

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/digest/pkg/digest/content"
	"github.com/jamesainslie/digest/pkg/digest/limits"
	"github.com/jamesainslie/digest/pkg/digest/pattern"
	"github.com/jamesainslie/digest/pkg/digest/render"
	"github.com/jamesainslie/digest/pkg/digest/scanner"
	"github.com/jamesainslie/digest/pkg/digest/tokens"
)

// Type selects between directory and single-file ingestion.
type Type string

const (
	// TypeTree ingests a directory.
	TypeTree Type = "tree"
	// TypeBlob ingests a single file.
	TypeBlob Type = "blob"
)

// Config describes one ingestion request. It is built once by the caller
// and not modified by Ingest.
type Config struct {
	// Root is the local directory holding the repository.
	Root string

	// Subpath selects a directory or file below Root. "/" or "" is the root.
	Subpath string

	// Type selects directory or single-file mode. Empty means TypeTree.
	Type Type

	// Include and Exclude hold user patterns. Each entry may contain several
	// patterns separated by commas or spaces. Exclude is merged with
	// pattern.DefaultExcludes, minus anything listed in Include.
	Include []string
	Exclude []string

	// MaxFileSize is the per-file size above which content is omitted.
	MaxFileSize int64

	// Display fields.
	UserName string
	RepoName string
	Slug     string
	Branch   string
	Commit   string

	// Scan limits. Zero selects the defaults.
	MaxDepth      int
	MaxFiles      int
	MaxTotalBytes int64

	// UseGitignore additionally excludes entries ignored by Root/.gitignore.
	UseGitignore bool

	// Converters maps file extensions to content conversion hooks.
	Converters map[string]content.Converter

	// Counter estimates tokens. Nil selects tokens.Default.
	Counter tokens.Counter
}

// DefaultConfig returns a directory-mode config for root with default limits.
func DefaultConfig(root string) Config {
	return Config{
		Root:          root,
		Subpath:       "/",
		Type:          TypeTree,
		MaxFileSize:   scanner.DefaultMaxFileSize,
		MaxDepth:      limits.DefaultMaxDepth,
		MaxFiles:      limits.DefaultMaxFiles,
		MaxTotalBytes: limits.DefaultMaxTotalBytes,
	}
}

// Target returns the absolute path selected by Root and Subpath. The subpath
// is cleaned as an absolute path, so ".." cannot climb above Root.
func (c Config) Target() (string, error) {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	sub := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(c.Subpath)), "/")
	if sub == "" {
		return root, nil
	}
	return filepath.Join(root, filepath.FromSlash(sub)), nil
}

// DisplaySlug returns Slug, or "parent/name" of Root when unset.
func (c Config) DisplaySlug() string {
	if c.Slug != "" {
		return c.Slug
	}
	abs, err := filepath.Abs(c.Root)
	if err != nil {
		return filepath.Base(c.Root)
	}
	return Slug(abs)
}

// Slug returns "parent/name" for an absolute path, the way local paths are
// displayed.
func Slug(abs string) string {
	name := filepath.Base(abs)
	parent := filepath.Base(filepath.Dir(abs))
	if parent == "." || parent == string(filepath.Separator) || parent == name {
		return name
	}
	return parent + "/" + name
}

func (c Config) header() render.Header {
	return render.Header{
		UserName: c.UserName,
		RepoName: c.RepoName,
		Slug:     c.DisplaySlug(),
		Subpath:  c.Subpath,
		Branch:   c.Branch,
		Commit:   c.Commit,
	}
}

// patterns parses the user patterns and merges the exclusion set.
func (c Config) patterns() (include, exclude []string, err error) {
	include, err = pattern.Parse(c.Include...)
	if err != nil {
		return nil, nil, err
	}
	user, err := pattern.Parse(c.Exclude...)
	if err != nil {
		return nil, nil, err
	}
	return include, pattern.MergeExcludes(pattern.DefaultExcludes, user, include), nil
}

func (c Config) reader() *content.Reader {
	opts := make([]content.Option, 0, len(c.Converters))
	for ext, fn := range c.Converters {
		opts = append(opts, content.WithConverter(ext, fn))
	}
	return content.NewReader(opts...)
}

func (c Config) maxFileSize() int64 {
	if c.MaxFileSize <= 0 {
		return scanner.DefaultMaxFileSize
	}
	return c.MaxFileSize
}
