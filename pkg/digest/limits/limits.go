// Package limits enforces the per-scan safety budget: maximum directory
// depth, maximum number of files and maximum cumulative bytes. Every cap is a
// hard ceiling checked before an item is counted, never after.
//
// A Limits value belongs to exactly one scan and is not safe for concurrent use.
package limits

import (
	"github.com/jamesainslie/digest/pkg/digest/types"
)

// Default ceilings. Configuration may lower them but never raise them.
const (
	DefaultMaxDepth      = 20
	DefaultMaxFiles      = 10_000
	DefaultMaxTotalBytes = 500 * types.MiB
)

// Verdict is the outcome of a limit check.
type Verdict int

const (
	// OK means the item may be processed.
	OK Verdict = iota
	// DepthExceeded means the directory lies deeper than MaxDepth.
	DepthExceeded
	// FilesExceeded means the file budget is spent.
	FilesExceeded
	// BytesExceeded means the byte budget is spent or would be overshot.
	BytesExceeded
)

// String returns the name of the limit a verdict refers to.
func (v Verdict) String() string {
	switch v {
	case OK:
		return "ok"
	case DepthExceeded:
		return "max_depth"
	case FilesExceeded:
		return "max_files"
	case BytesExceeded:
		return "max_total_size"
	default:
		return "unknown"
	}
}

// Limits tracks the running totals of one scan against its ceilings.
type Limits struct {
	maxDepth      int
	maxFiles      int
	maxTotalBytes int64

	files int
	bytes int64
}

// New returns a Limits with the given ceilings. Values that are not positive
// or that exceed the defaults are replaced by the defaults.
func New(maxDepth, maxFiles int, maxTotalBytes int64) *Limits {
	if maxDepth <= 0 || maxDepth > DefaultMaxDepth {
		maxDepth = DefaultMaxDepth
	}
	if maxFiles <= 0 || maxFiles > DefaultMaxFiles {
		maxFiles = DefaultMaxFiles
	}
	if maxTotalBytes <= 0 || maxTotalBytes > DefaultMaxTotalBytes {
		maxTotalBytes = DefaultMaxTotalBytes
	}
	return &Limits{
		maxDepth:      maxDepth,
		maxFiles:      maxFiles,
		maxTotalBytes: maxTotalBytes,
	}
}

// Check runs the depth, file-count and byte checks, in that order, before a
// directory at the given depth is entered.
func (l *Limits) Check(depth int) Verdict {
	if depth > l.maxDepth {
		return DepthExceeded
	}
	if l.files >= l.maxFiles {
		return FilesExceeded
	}
	if l.bytes >= l.maxTotalBytes {
		return BytesExceeded
	}
	return OK
}

// Admit counts a candidate file of the given size if it fits both budgets.
// A file that would push the byte total past the ceiling is refused and not
// counted.
func (l *Limits) Admit(size int64) Verdict {
	if l.files >= l.maxFiles {
		return FilesExceeded
	}
	if l.bytes+size > l.maxTotalBytes {
		return BytesExceeded
	}
	l.files++
	l.bytes += size
	return OK
}

// Files returns the number of files counted so far.
func (l *Limits) Files() int { return l.files }

// Bytes returns the number of bytes counted so far.
func (l *Limits) Bytes() int64 { return l.bytes }

// MaxDepth returns the depth ceiling.
func (l *Limits) MaxDepth() int { return l.maxDepth }

// MaxFiles returns the file-count ceiling.
func (l *Limits) MaxFiles() int { return l.maxFiles }

// MaxTotalBytes returns the byte ceiling.
func (l *Limits) MaxTotalBytes() int64 { return l.maxTotalBytes }

// Max returns the ceiling a verdict refers to, for log output.
func (l *Limits) Max(v Verdict) int64 {
	switch v {
	case DepthExceeded:
		return int64(l.maxDepth)
	case FilesExceeded:
		return int64(l.maxFiles)
	case BytesExceeded:
		return l.maxTotalBytes
	default:
		return 0
	}
}
