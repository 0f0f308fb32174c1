// Package render turns a scanned tree into the three digest artifacts: a
// summary, a directory-structure drawing and a concatenated content dump.
//
// Output is a pure function of the tree. Paths are always written with '/'
// so the same input produces byte-identical output on every platform.
package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/digest/pkg/digest/types"
)

// Separator delimits file sections in the content dump.
var Separator = strings.Repeat("=", 48) + "\n"

// TreeHeader starts every tree drawing.
const TreeHeader = "Directory structure:\n"

// Tree connectors and continuation prefixes.
const (
	lastBranch  = "└── "
	midBranch   = "├── "
	lastIndent  = "    "
	childIndent = "│   "
)

// Header carries the display fields of an ingestion.
type Header struct {
	UserName string
	RepoName string
	Slug     string
	Subpath  string
	Branch   string
	Commit   string
}

// Name returns "user/repo" when both parts are known, otherwise the slug.
func (h Header) Name() string {
	if h.UserName != "" && h.RepoName != "" {
		return h.UserName + "/" + h.RepoName
	}
	return h.Slug
}

// Summary renders the directory-mode summary. The estimated-token line is
// appended by the caller.
func Summary(h Header, root *types.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", h.Name())
	fmt.Fprintf(&b, "Files analyzed: %d\n", root.FileCount)

	if h.Subpath != "" && h.Subpath != "/" {
		fmt.Fprintf(&b, "Subpath: %s\n", h.Subpath)
	}
	switch {
	case h.Commit != "":
		fmt.Fprintf(&b, "Commit: %s\n", h.Commit)
	case h.Branch != "" && h.Branch != "main" && h.Branch != "master":
		fmt.Fprintf(&b, "Branch: %s\n", h.Branch)
	}
	return b.String()
}

// Tree renders root as a box-drawing tree under TreeHeader. An unnamed root
// is shown as slug.
func Tree(root *types.Node, slug string) string {
	var b strings.Builder
	b.WriteString(TreeHeader)
	writeNode(&b, root, slug, "", true)
	return b.String()
}

func writeNode(b *strings.Builder, n *types.Node, slug, prefix string, last bool) {
	name := n.Name
	if name == "" {
		name = slug
	}

	connector, indent := midBranch, childIndent
	if last {
		connector, indent = lastBranch, lastIndent
	}

	b.WriteString(prefix)
	b.WriteString(connector)
	b.WriteString(name)
	if n.IsDir() {
		b.WriteString("/")
	}
	b.WriteString("\n")

	for i, c := range n.Children {
		writeNode(b, c, slug, prefix+indent, i == len(n.Children)-1)
	}
}

// Extract flattens the tree into files in tree order. Paths are made relative
// to base. Non-text and unmatched files are dropped; files larger than
// maxFileSize are kept with Omitted set so they can be listed but not dumped.
func Extract(root *types.Node, base string, maxFileSize int64) []types.ExtractedFile {
	var files []types.ExtractedFile
	var walk func(n *types.Node)
	walk = func(n *types.Node) {
		if n.IsDir() {
			for _, c := range n.Children {
				walk(c)
			}
			return
		}
		if n.Binary || n.Unmatched {
			return
		}
		f := types.ExtractedFile{
			Path:    RelPath(n.Path, base),
			Content: n.Content,
			Size:    n.Size,
		}
		if n.TooLarge || n.Size > maxFileSize {
			f.Content = ""
			f.Omitted = true
		}
		files = append(files, f)
	}
	if root != nil {
		walk(root)
	}
	return files
}

// Content renders the content dump. Omitted files are skipped.
func Content(files []types.ExtractedFile) string {
	var b strings.Builder
	for _, f := range files {
		if f.Omitted {
			continue
		}
		b.WriteString(Separator)
		b.WriteString("File: ")
		b.WriteString(f.Path)
		b.WriteString("\n")
		b.WriteString(Separator)
		b.WriteString(f.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// FileSummary renders the summary of a single-file ingestion.
func FileSummary(h Header, name string, size int64, content string) string {
	return fmt.Sprintf("Repository: %s\nFile: %s\nSize: %s bytes\nLines: %s\n",
		h.Name(), name, humanize.Comma(size), humanize.Comma(int64(LineCount(content))))
}

// FileTree renders the tree of a single-file ingestion.
func FileTree(name string) string {
	return TreeHeader + lastBranch + name
}

// LineCount counts lines the way a reader splitting on any line ending would:
// a trailing newline does not start a new line.
func LineCount(s string) int {
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// RelPath returns p relative to base using '/' separators. A path outside
// base, or base itself, is returned by its base name.
func RelPath(p, base string) string {
	rel, err := filepath.Rel(base, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(p)
	}
	return filepath.ToSlash(rel)
}
