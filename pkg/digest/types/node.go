package types

import (
	"slices"
	"strings"
)

// NodeKind distinguishes files from directories in a scanned tree.
type NodeKind int

const (
	// KindFile is a regular file (or a symlink resolved to one).
	KindFile NodeKind = iota
	// KindDirectory is a directory (or a symlink resolved to one).
	KindDirectory
)

// String returns the string representation of the kind.
func (k NodeKind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Node is a file or directory in a scanned tree.
//
// For directories, Size, FileCount and DirCount always equal the totals of the
// attached children, unmatched files excepted; AddChild is the only way
// children are attached so the totals hold after every mutation.
type Node struct {
	Kind NodeKind `json:"kind"`

	// Name is the display name. For symlinks it is the link's own name.
	Name string `json:"name"`

	// Path is the apparent absolute path (through symlinks, not resolved).
	Path string `json:"path"`

	// Size is the file size, or the cumulative size of a directory's files.
	Size int64 `json:"size"`

	// Content holds the file body or one of the content placeholders.
	Content string `json:"content,omitempty"`

	// Binary is set for files classified as non-text.
	Binary bool `json:"binary,omitempty"`

	// TooLarge is set for files whose size exceeded the per-file maximum.
	TooLarge bool `json:"too_large,omitempty"`

	Children []*Node `json:"children,omitempty"`

	// FileCount is the number of files in this directory and all descendants.
	FileCount int `json:"file_count,omitempty"`

	// DirCount is the number of directories below this directory.
	DirCount int `json:"dir_count,omitempty"`

	// IgnoreContent is set when a direct child file missed the include
	// patterns. Informational only.
	IgnoreContent bool `json:"ignore_content,omitempty"`

	// Unmatched marks a file that missed the include patterns. It is listed
	// in the tree but never read, counted or dumped.
	Unmatched bool `json:"unmatched,omitempty"`
}

// NewFile returns a file node.
func NewFile(name, path string, size int64, content string) *Node {
	return &Node{Kind: KindFile, Name: name, Path: path, Size: size, Content: content}
}

// NewDirectory returns an empty directory node.
func NewDirectory(name, path string) *Node {
	return &Node{Kind: KindDirectory, Name: name, Path: path}
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.Kind == KindDirectory
}

// AddChild attaches child and folds its totals into n.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
	if child.Unmatched {
		return
	}
	n.Size += child.Size
	if child.IsDir() {
		n.FileCount += child.FileCount
		n.DirCount += 1 + child.DirCount
		return
	}
	n.FileCount++
}

// SortChildren orders n's children in the fixed rendering order.
func (n *Node) SortChildren() {
	SortNodes(n.Children)
}

// SortNodes sorts siblings into five buckets: README.md (any case), other
// visible files, hidden files, visible directories, hidden directories.
// Names are compared case-sensitively within each bucket.
func SortNodes(nodes []*Node) {
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		if ra, rb := bucket(a), bucket(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// bucket returns the sort group of a node.
func bucket(n *Node) int {
	hidden := strings.HasPrefix(n.Name, ".")
	switch {
	case !n.IsDir() && strings.EqualFold(n.Name, "readme.md"):
		return 0
	case !n.IsDir() && !hidden:
		return 1
	case !n.IsDir():
		return 2
	case !hidden:
		return 3
	default:
		return 4
	}
}
