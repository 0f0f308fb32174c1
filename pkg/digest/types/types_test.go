package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr error
	}{
		{input: "0", want: 0},
		{input: "1024", want: 1024},
		{input: "512B", want: 512},
		{input: "10K", want: 10 * KiB},
		{input: "10MB", want: 10 * MiB},
		{input: "1.5G", want: GiB + GiB/2},
		{input: "2TiB", want: 2 * TiB},
		{input: " 500mb ", want: 500 * MiB},
		{input: "", wantErr: ErrInvalidSize},
		{input: "abc", wantErr: ErrInvalidSize},
		{input: "10X", wantErr: ErrInvalidSize},
		{input: "-5M", wantErr: ErrNegativeSize},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "1.0 KiB", FormatSize(KiB))
	assert.Equal(t, "0 B", FormatSize(-3))
}

func TestAddChildFoldsTotals(t *testing.T) {
	root := NewDirectory("root", "/r")
	sub := NewDirectory("sub", "/r/sub")
	sub.AddChild(NewFile("a.txt", "/r/sub/a.txt", 3, "abc"))
	sub.AddChild(NewFile("b.txt", "/r/sub/b.txt", 2, "ab"))
	nested := NewDirectory("nested", "/r/sub/nested")
	nested.AddChild(NewFile("c.txt", "/r/sub/nested/c.txt", 1, "c"))
	sub.AddChild(nested)

	root.AddChild(NewFile("top.txt", "/r/top.txt", 10, "0123456789"))
	root.AddChild(sub)

	assert.Equal(t, 3, sub.FileCount)
	assert.Equal(t, 1, sub.DirCount)
	assert.Equal(t, int64(6), sub.Size)

	assert.Equal(t, 4, root.FileCount)
	assert.Equal(t, 2, root.DirCount)
	assert.Equal(t, int64(16), root.Size)
}

func TestAddChildSkipsUnmatchedTotals(t *testing.T) {
	dir := NewDirectory("d", "/d")
	dir.AddChild(NewFile("a.txt", "/d/a.txt", 3, "abc"))
	listed := NewFile("b.py", "/d/b.py", 50, "")
	listed.Unmatched = true
	dir.AddChild(listed)

	assert.Len(t, dir.Children, 2)
	assert.Equal(t, 1, dir.FileCount)
	assert.Equal(t, int64(3), dir.Size)
}

func TestSortNodes(t *testing.T) {
	nodes := []*Node{
		NewDirectory(".github", ""),
		NewFile("zeta.go", "", 0, ""),
		NewDirectory("src", ""),
		NewFile(".env", "", 0, ""),
		NewFile("Alpha.go", "", 0, ""),
		NewDirectory("docs", ""),
		NewFile("readme.MD", "", 0, ""),
		NewFile("alpha.go", "", 0, ""),
		NewDirectory(".cache", ""),
		NewFile(".bashrc", "", 0, ""),
	}

	SortNodes(nodes)

	var got []string
	for _, n := range nodes {
		got = append(got, n.Name)
	}
	want := []string{
		"readme.MD",
		"Alpha.go", "alpha.go", "zeta.go",
		".bashrc", ".env",
		"docs", "src",
		".cache", ".github",
	}
	assert.Equal(t, want, got)
}

func TestSortNodesReadmeDirectoryIsNotPromoted(t *testing.T) {
	nodes := []*Node{
		NewDirectory("README.md", ""),
		NewFile("b.txt", "", 0, ""),
	}
	SortNodes(nodes)
	assert.Equal(t, "b.txt", nodes[0].Name)
	assert.Equal(t, "README.md", nodes[1].Name)
}
