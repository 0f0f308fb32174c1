// Package ingest is the entry point of the digest engine. Ingest resolves the
// target of a Config, scans it (or reads it, for a single file) and renders
// the summary, tree and content artifacts.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/digest/pkg/digest/content"
	"github.com/jamesainslie/digest/pkg/digest/logging"
	"github.com/jamesainslie/digest/pkg/digest/pattern"
	"github.com/jamesainslie/digest/pkg/digest/render"
	"github.com/jamesainslie/digest/pkg/digest/scanner"
	"github.com/jamesainslie/digest/pkg/digest/tokens"
	"github.com/jamesainslie/digest/pkg/digest/types"
)

var logger = logging.Get("ingest")

// Fatal ingestion errors. Everything else is logged and reflected in the
// output instead.
var (
	// ErrNotFound is returned when the target does not exist.
	ErrNotFound = errors.New("cannot be found")

	// ErrNotAFile is returned in single-file mode when the target is not a regular file.
	ErrNotAFile = errors.New("not a file")

	// ErrNotTextFile is returned in single-file mode when the target is binary.
	ErrNotTextFile = errors.New("not a text file")

	// ErrNoFiles is returned when a directory scan produced no tree.
	ErrNoFiles = errors.New("no files found")
)

// Result holds the rendered artifacts and scan statistics.
type Result struct {
	Summary string
	Tree    string
	Content string

	// Tokens is the formatted estimate, empty when estimation failed.
	Tokens string

	// Files lists the extracted files in tree order.
	Files []types.ExtractedFile

	FilesCounted int
	BytesCounted int64
}

// Ingest runs one ingestion described by cfg.
func Ingest(cfg Config) (*Result, error) {
	target, err := cfg.Target()
	if err != nil {
		return nil, err
	}
	slug := cfg.DisplaySlug()

	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("accessing %s: %w", slug, err)
	}

	logger.Info("ingesting", "path", target, "type", cfg.Type, "slug", slug)

	if cfg.Type == TypeBlob {
		return ingestFile(cfg, target)
	}
	return ingestDirectory(cfg, target)
}

// ingestFile renders a single file without scanning.
func ingestFile(cfg Config, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	reader := cfg.reader()
	if !reader.HasConverter(path) && !content.IsText(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotTextFile, path)
	}

	size := info.Size()
	text := content.TooLargePlaceholder
	if size <= cfg.maxFileSize() {
		text = reader.Read(path)
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	files := []types.ExtractedFile{{
		Path:    render.RelPath(path, root),
		Content: text,
		Size:    size,
	}}

	name := filepath.Base(path)
	res := &Result{
		Summary:      render.FileSummary(cfg.header(), name, size, text),
		Tree:         render.FileTree(name),
		Content:      render.Content(files),
		Files:        files,
		FilesCounted: 1,
		BytesCounted: size,
	}
	res.estimate(cfg.Counter, res.Content)
	return res, nil
}

// ingestDirectory scans path and renders the tree.
func ingestDirectory(cfg Config, path string) (*Result, error) {
	include, exclude, err := cfg.patterns()
	if err != nil {
		return nil, err
	}

	var gi *pattern.Gitignore
	if cfg.UseGitignore {
		root, err := filepath.Abs(cfg.Root)
		if err != nil {
			return nil, err
		}
		gi, err = pattern.LoadGitignore(root)
		if err != nil {
			logger.Warn("ignoring unreadable .gitignore", "error", err)
			gi = nil
		}
		if gi != nil {
			logger.Debug("gitignore loaded", "path", gi.Path())
		}
	}

	s, err := scanner.New(scanner.Options{
		Root:          cfg.Root,
		Include:       include,
		Exclude:       exclude,
		MaxFileSize:   cfg.maxFileSize(),
		MaxDepth:      cfg.MaxDepth,
		MaxFiles:      cfg.MaxFiles,
		MaxTotalBytes: cfg.MaxTotalBytes,
		Reader:        cfg.reader(),
		Gitignore:     gi,
	})
	if err != nil {
		return nil, err
	}

	scan, err := s.Scan(path)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	if scan.Root == nil {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, path)
	}

	// The repository root itself is displayed under its slug.
	if path == s.Root() {
		scan.Root.Name = ""
	}

	slug := cfg.DisplaySlug()
	files := render.Extract(scan.Root, s.Root(), cfg.maxFileSize())
	res := &Result{
		Summary:      render.Summary(cfg.header(), scan.Root),
		Tree:         render.Tree(scan.Root, slug),
		Content:      render.Content(files),
		Files:        files,
		FilesCounted: scan.FilesCounted,
		BytesCounted: scan.BytesCounted,
	}
	res.estimate(cfg.Counter, res.Tree+res.Content)

	logger.Info("ingestion complete",
		"files", scan.Root.FileCount,
		"dirs", scan.Root.DirCount,
		"size", types.FormatSize(scan.Root.Size),
		"tokens", res.Tokens,
	)
	return res, nil
}

// estimate appends the token line to the summary when estimation succeeds.
func (r *Result) estimate(c tokens.Counter, text string) {
	formatted, ok := tokens.Estimate(c, text)
	if !ok {
		return
	}
	r.Tokens = formatted
	r.Summary += "\nEstimated tokens: " + formatted
}
