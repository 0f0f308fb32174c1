// Package scanner walks a directory tree under the digest safety limits and
// builds an in-memory tree of files and directories with their content.
//
// The walk is a single-threaded, depth-first recursion. Each call to Scan owns
// a fresh limit budget and visited set, so one Scanner may serve several
// scans, including concurrent ones.
package scanner

import (
	"github.com/jamesainslie/digest/pkg/digest/content"
	"github.com/jamesainslie/digest/pkg/digest/limits"
	"github.com/jamesainslie/digest/pkg/digest/pattern"
	"github.com/jamesainslie/digest/pkg/digest/types"
)

// DefaultMaxFileSize is the per-file size above which content is omitted.
const DefaultMaxFileSize = 10 * types.MiB

// Options configures the scanner behavior.
type Options struct {
	// Root is the configured repository root. Symlinks must resolve inside it
	// and patterns are matched against paths relative to it.
	Root string

	// Include contains normalized glob patterns. When non-empty, only files
	// matching at least one pattern are read and counted; the others are
	// listed as unmatched.
	Include []string

	// Exclude contains normalized glob patterns for entries to skip entirely.
	Exclude []string

	// MaxFileSize is the per-file size in bytes beyond which content is
	// replaced by a placeholder.
	MaxFileSize int64

	// MaxDepth, MaxFiles and MaxTotalBytes bound a single scan. Zero or
	// values above the defaults select the defaults.
	MaxDepth      int
	MaxFiles      int
	MaxTotalBytes int64

	// Reader reads file content. If nil, a default reader is used.
	Reader *content.Reader

	// Gitignore, if set, excludes entries ignored by the root .gitignore.
	Gitignore *pattern.Gitignore
}

// DefaultOptions returns options with the default limits and exclusions.
func DefaultOptions() Options {
	return Options{
		Root:          ".",
		Exclude:       pattern.DefaultExcludes,
		MaxFileSize:   DefaultMaxFileSize,
		MaxDepth:      limits.DefaultMaxDepth,
		MaxFiles:      limits.DefaultMaxFiles,
		MaxTotalBytes: limits.DefaultMaxTotalBytes,
	}
}

// Validate applies defaults for unset or invalid values.
func (o *Options) Validate() error {
	if o.Root == "" {
		o.Root = "."
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.Reader == nil {
		o.Reader = content.NewReader()
	}
	return nil
}
