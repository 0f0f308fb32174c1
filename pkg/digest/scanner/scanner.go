package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jamesainslie/digest/pkg/digest/content"
	"github.com/jamesainslie/digest/pkg/digest/limits"
	"github.com/jamesainslie/digest/pkg/digest/logging"
	"github.com/jamesainslie/digest/pkg/digest/pattern"
	"github.com/jamesainslie/digest/pkg/digest/types"
)

var logger = logging.Get("scanner")

// ErrNotDirectory is returned when the scan start is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// ErrOutsideRoot is returned when the scan start resolves outside the root.
var ErrOutsideRoot = errors.New("path resolves outside root")

// Result is the outcome of one scan.
type Result struct {
	// Root is the scanned tree, or nil if the start directory itself was
	// skipped by a limit.
	Root *types.Node

	// FilesCounted is the number of files admitted under the limits.
	FilesCounted int

	// BytesCounted is the cumulative size of admitted files.
	BytesCounted int64
}

// Scanner walks directories according to Options.
type Scanner struct {
	opts Options

	include *pattern.Matcher
	exclude *pattern.Matcher

	// root is the absolute root as configured; canonRoot has symlinks resolved.
	root      string
	canonRoot string
}

// New creates a Scanner, compiling its patterns once.
func New(opts Options) (*Scanner, error) {
	_ = opts.Validate()

	include, err := pattern.Compile(opts.Include)
	if err != nil {
		return nil, fmt.Errorf("compiling include patterns: %w", err)
	}
	exclude, err := pattern.Compile(opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("compiling exclude patterns: %w", err)
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	canonRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	return &Scanner{
		opts:      opts,
		include:   include,
		exclude:   exclude,
		root:      root,
		canonRoot: canonRoot,
	}, nil
}

// Root returns the absolute configured root.
func (s *Scanner) Root() string {
	return s.root
}

// Scan walks the directory at start, which must lie inside the root.
// Limit hits, unreadable directories and unsafe symlinks are logged and
// skipped; only an invalid start returns an error.
func (s *Scanner) Scan(start string) (*Result, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	if !hasPathPrefix(canon, s.canonRoot) {
		return nil, fmt.Errorf("%w: %s", ErrOutsideRoot, start)
	}
	info, err := os.Stat(canon)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, start)
	}

	w := &walk{
		s:       s,
		limits:  limits.New(s.opts.MaxDepth, s.opts.MaxFiles, s.opts.MaxTotalBytes),
		visited: make(map[string]struct{}),
	}

	logger.Debug("scan started",
		"path", abs,
		"root", s.root,
		"include", s.include.Len(),
		"exclude", s.exclude.Len(),
		"max_depth", w.limits.MaxDepth(),
		"max_files", w.limits.MaxFiles(),
		"max_total_size", w.limits.MaxTotalBytes(),
	)
	node := w.scanDir(abs, canon, 0)
	logger.Debug("scan finished", "path", abs, "files", w.limits.Files(), "bytes", w.limits.Bytes(), "unmatched", w.unmatched)

	return &Result{
		Root:         node,
		FilesCounted: w.limits.Files(),
		BytesCounted: w.limits.Bytes(),
	}, nil
}

// walk holds the state owned by a single scan.
type walk struct {
	s       *Scanner
	limits  *limits.Limits
	visited map[string]struct{}

	// unmatched counts files listed without content because they miss the
	// include set.
	unmatched       int
	unmatchedCapped bool
}

// scanDir scans one directory. It returns nil when a limit is reached or the
// directory was already visited.
func (w *walk) scanDir(path, canon string, depth int) *types.Node {
	if v := w.limits.Check(depth); v != limits.OK {
		logger.Warn("skipping directory: limit reached", "path", path, "limit", v, "max", w.limits.Max(v))
		return nil
	}
	if w.seen(canon) {
		logger.Info("skipping already visited path", "path", path)
		return nil
	}
	w.visited[canon] = struct{}{}

	dir := types.NewDirectory(filepath.Base(path), path)

	// ReadDir returns the entries read before a failure, so a permission
	// error still yields a partial listing.
	entries, err := os.ReadDir(path)
	if err != nil {
		logger.Warn("listing directory failed", "path", path, "error", err)
	}

	for _, e := range entries {
		if !w.processEntry(dir, path, canon, e, depth) {
			break
		}
	}

	dir.SortChildren()
	return dir
}

// processEntry handles one directory entry. It returns false when the file
// budget is spent and the remaining siblings should not be visited.
func (w *walk) processEntry(parent *types.Node, dir, canonDir string, e fs.DirEntry, depth int) bool {
	p := filepath.Join(dir, e.Name())

	// Stat follows symlinks so links are classified by their target.
	info, err := os.Stat(p)
	if err != nil {
		logger.Warn("skipping unreadable entry", "path", p, "error", err)
		return true
	}

	if w.s.excluded(p, info.IsDir()) {
		logger.Debug("excluded", "path", p)
		return true
	}

	// Links are resolved and contained before anything about them is listed.
	canon := filepath.Join(canonDir, e.Name())
	if e.Type()&fs.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(p)
		if err != nil {
			logger.Warn("skipping unresolvable symlink", "path", p, "error", err)
			return true
		}
		if !hasPathPrefix(resolved, w.s.canonRoot) {
			logger.Warn("skipping symlink outside root", "path", p, "target", resolved)
			return true
		}
		canon = resolved
	}

	if !info.IsDir() && !w.s.include.Empty() && !w.s.include.ShouldInclude(p, w.s.root) {
		parent.IgnoreContent = true
		w.listUnmatched(parent, p, info.Size())
		return true
	}

	if w.seen(canon) {
		logger.Info("skipping already visited path", "path", p)
		return true
	}

	switch {
	case info.IsDir():
		sub := w.scanDir(p, canon, depth+1)
		if sub != nil && (w.s.include.Empty() || sub.FileCount > 0) {
			parent.AddChild(sub)
		}
	case info.Mode().IsRegular():
		return w.addFile(parent, p, canon, info.Size())
	default:
		logger.Debug("skipping special file", "path", p, "mode", info.Mode().String())
	}
	return true
}

// listUnmatched attaches a file that misses the include set as a content-less
// entry. Listings share the file ceiling but are budgeted separately from
// admitted files.
func (w *walk) listUnmatched(parent *types.Node, path string, size int64) {
	if w.unmatched >= w.limits.MaxFiles() {
		if !w.unmatchedCapped {
			logger.Warn("unmatched listing limit reached", "path", path, "max", w.limits.MaxFiles())
			w.unmatchedCapped = true
		}
		return
	}
	w.unmatched++
	listed := types.NewFile(filepath.Base(path), path, size, "")
	listed.Unmatched = true
	parent.AddChild(listed)
}

// addFile admits a file under the limits, reads it and attaches it to parent.
func (w *walk) addFile(parent *types.Node, path, canon string, size int64) bool {
	switch v := w.limits.Admit(size); v {
	case limits.FilesExceeded:
		logger.Warn("maximum file limit reached", "path", path, "max", w.limits.Max(v))
		return false
	case limits.BytesExceeded:
		logger.Warn("skipping file: would exceed total size limit", "path", path, "size", size, "max", w.limits.Max(v))
		return true
	}
	w.visited[canon] = struct{}{}

	reader := w.s.opts.Reader
	node := types.NewFile(filepath.Base(path), path, size, "")
	switch {
	case !reader.HasConverter(path) && !content.IsText(path):
		node.Binary = true
		node.Content = content.NonTextPlaceholder
	case size > w.s.opts.MaxFileSize:
		node.TooLarge = true
		node.Content = content.TooLargePlaceholder
	default:
		node.Content = reader.Read(path)
	}

	parent.AddChild(node)
	return true
}

func (w *walk) seen(canon string) bool {
	_, ok := w.visited[canon]
	return ok
}

// excluded applies the exclude patterns and, when configured, the root .gitignore.
func (s *Scanner) excluded(path string, isDir bool) bool {
	if s.exclude.ShouldExclude(path, s.root) {
		return true
	}
	return s.opts.Gitignore.Ignored(path, isDir)
}

// hasPathPrefix reports whether path equals root or lies beneath it.
func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}
