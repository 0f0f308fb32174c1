package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/digest/pkg/digest/content"
	"github.com/jamesainslie/digest/pkg/digest/notebook"
	"github.com/jamesainslie/digest/pkg/digest/pattern"
	"github.com/jamesainslie/digest/pkg/digest/tokens"
)

var sep = strings.Repeat("=", 48) + "\n"

// wordCounter counts whitespace-separated words so tests need no BPE ranks.
var wordCounter = tokens.CounterFunc(func(text string) (int, error) {
	return len(strings.Fields(text)), nil
})

func writeFile(t *testing.T, root, rel, body string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func testConfig(root string) Config {
	cfg := DefaultConfig(root)
	cfg.Slug = "owner-repo"
	cfg.Counter = wordCounter
	return cfg
}

func buildRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range map[string]string{
		"file1.txt":                  "Hello World",
		"file2.py":                   "print('Hello')",
		"src/subfile1.txt":           "Hello from src",
		"src/subfile2.py":            "print('Hello from src')",
		"src/subdir/file_subdir.txt": "Hello from subdir",
		"src/subdir/file_subdir.py":  "print('Hello from subdir')",
		"dir1/file_dir1.txt":         "Hello from dir1",
		"dir2/file_dir2.txt":         "Hello from dir2",
	} {
		writeFile(t, root, rel, body)
	}
	return root
}

func TestIngestTwoFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file2.py", "print('Hello')")
	writeFile(t, root, "file1.txt", "Hello World")

	res, err := Ingest(testConfig(root))
	require.NoError(t, err)

	assert.Equal(t, "Directory structure:\n└── owner-repo/\n    ├── file1.txt\n    └── file2.py\n", res.Tree)
	assert.Equal(t,
		sep+"File: file1.txt\n"+sep+"Hello World\n\n"+
			sep+"File: file2.py\n"+sep+"print('Hello')\n\n",
		res.Content)

	words := len(strings.Fields(res.Tree + res.Content))
	assert.Equal(t, "Repository: owner-repo\nFiles analyzed: 2\n\nEstimated tokens: "+tokens.Format(words), res.Summary)
	assert.Equal(t, 2, res.FilesCounted)
	assert.Equal(t, int64(25), res.BytesCounted)
}

func TestIngestIncludeFiltersContentNotTree(t *testing.T) {
	root := buildRepo(t)
	cfg := testConfig(root)
	cfg.Include = []string{"*.txt"}

	res, err := Ingest(cfg)
	require.NoError(t, err)

	assert.Contains(t, res.Content, "Hello World")
	assert.Contains(t, res.Content, "Hello from subdir")
	assert.NotContains(t, res.Content, "print(")
	assert.Contains(t, res.Tree, "file2.py")
	assert.Contains(t, res.Tree, "subfile2.py")
	assert.Contains(t, res.Summary, "Files analyzed: 5\n")
	assert.Len(t, res.Files, 5)
}

func TestIngestMaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.txt", "Hello World")

	cfg := testConfig(root)
	cfg.MaxFileSize = 5
	res, err := Ingest(cfg)
	require.NoError(t, err)

	require.Len(t, res.Files, 1)
	assert.True(t, res.Files[0].Omitted)
	assert.Equal(t, int64(11), res.Files[0].Size)
	assert.Contains(t, res.Tree, "big.txt")
	assert.Empty(t, res.Content)
}

func TestIngestNotFound(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Subpath = "/missing"

	res, err := Ingest(cfg)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "owner-repo cannot be found", err.Error())
}

func TestIngestSubpath(t *testing.T) {
	root := buildRepo(t)
	cfg := testConfig(root)
	cfg.Subpath = "/src"
	cfg.Branch = "feature"

	res, err := Ingest(cfg)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Tree, "Directory structure:\n└── src/\n"), res.Tree)
	assert.Contains(t, res.Content, "File: src/subfile1.txt\n")
	assert.Contains(t, res.Content, "File: src/subdir/file_subdir.py\n")
	assert.NotContains(t, res.Content, "Hello World")
	assert.True(t, strings.HasPrefix(res.Summary,
		"Repository: owner-repo\nFiles analyzed: 4\nSubpath: /src\nBranch: feature\n"), res.Summary)
}

func TestIngestSubpathCannotEscapeRoot(t *testing.T) {
	root := buildRepo(t)
	cfg := testConfig(filepath.Join(root, "src"))
	cfg.Subpath = "/../../"

	res, err := Ingest(cfg)
	require.NoError(t, err)
	assert.NotContains(t, res.Content, "Hello World")
	assert.NotContains(t, res.Tree, "dir1")
}

func TestIngestExcludeAndOverride(t *testing.T) {
	root := buildRepo(t)
	writeFile(t, root, "node_modules/lib/index.js", "module.exports = 1")
	writeFile(t, root, "LICENSE", "MIT")

	cfg := testConfig(root)
	cfg.Exclude = []string{"dir1, *.py"}
	res, err := Ingest(cfg)
	require.NoError(t, err)

	assert.NotContains(t, res.Tree, "node_modules")
	assert.NotContains(t, res.Tree, "LICENSE")
	assert.NotContains(t, res.Tree, "dir1")
	assert.NotContains(t, res.Tree, ".py")

	cfg = testConfig(root)
	cfg.Include = []string{"LICENSE"}
	res, err = Ingest(cfg)
	require.NoError(t, err)
	assert.Contains(t, res.Content, "File: LICENSE\n"+sep+"MIT\n\n")
	assert.Contains(t, res.Summary, "Files analyzed: 1\n")
}

func TestIngestInvalidPattern(t *testing.T) {
	cfg := testConfig(buildRepo(t))
	cfg.Include = []string{"src/[a-z]"}

	_, err := Ingest(cfg)
	assert.True(t, errors.Is(err, pattern.ErrInvalidPattern), "got %v", err)
}

func TestIngestGitignore(t *testing.T) {
	root := buildRepo(t)
	writeFile(t, root, ".gitignore", "dir2/\n")

	cfg := testConfig(root)
	cfg.UseGitignore = true
	res, err := Ingest(cfg)
	require.NoError(t, err)
	assert.NotContains(t, res.Tree, "dir2")

	cfg.UseGitignore = false
	res, err = Ingest(cfg)
	require.NoError(t, err)
	assert.Contains(t, res.Tree, "dir2")
}

func TestIngestTokenFailureOmitsLine(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")

	cfg := testConfig(root)
	cfg.Counter = tokens.CounterFunc(func(string) (int, error) {
		return 0, errors.New("tokenizer unavailable")
	})
	res, err := Ingest(cfg)
	require.NoError(t, err)

	assert.NotContains(t, res.Summary, "Estimated tokens")
	assert.Empty(t, res.Tokens)
}

func TestIngestSingleFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main\n\nfunc main() {}\n")

	cfg := testConfig(root)
	cfg.Type = TypeBlob
	cfg.Subpath = "/src/main.go"
	cfg.UserName = "user"
	cfg.RepoName = "repo"

	res, err := Ingest(cfg)
	require.NoError(t, err)

	assert.Equal(t, "Directory structure:\n└── main.go", res.Tree)
	assert.Equal(t, sep+"File: src/main.go\n"+sep+"package main\n\nfunc main() {}\n\n\n", res.Content)
	assert.True(t, strings.HasPrefix(res.Summary,
		"Repository: user/repo\nFile: main.go\nSize: 29 bytes\nLines: 3\n\nEstimated tokens: "), res.Summary)
}

func TestIngestSingleFileTooLarge(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.txt", strings.Repeat("x", 2000))

	cfg := testConfig(root)
	cfg.Type = TypeBlob
	cfg.Subpath = "big.txt"
	cfg.MaxFileSize = 100

	res, err := Ingest(cfg)
	require.NoError(t, err)
	assert.Contains(t, res.Content, content.TooLargePlaceholder)
	assert.Contains(t, res.Summary, "Size: 2,000 bytes\nLines: 1\n")
}

func TestIngestSingleFileErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "dir/keep.txt", "x")
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.dat"), []byte{0, 1, 2, 3}, 0o644))

	cfg := testConfig(root)
	cfg.Type = TypeBlob

	cfg.Subpath = "/dir"
	_, err := Ingest(cfg)
	assert.True(t, errors.Is(err, ErrNotAFile), "got %v", err)

	cfg.Subpath = "/blob.dat"
	_, err = Ingest(cfg)
	assert.True(t, errors.Is(err, ErrNotTextFile), "got %v", err)
}

func TestIngestNotebookConverter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "analysis.ipynb",
		`{"cells": [{"cell_type": "markdown", "source": ["# Notes"]}, {"cell_type": "code", "source": ["x = 1"]}]}`)
	writeFile(t, root, "broken.ipynb", `{"cells": [{"cell_type": "widget", "source": []}]}`)

	cfg := testConfig(root)
	cfg.Converters = map[string]content.Converter{notebook.Extension: notebook.Convert}
	res, err := Ingest(cfg)
	require.NoError(t, err)

	assert.Contains(t, res.Content, "File: analysis.ipynb\n"+sep+"\"\"\"\n# Notes\n\"\"\"\n\nx = 1\n\n")
	assert.Contains(t, res.Content, "Error processing broken.ipynb:")
}

func TestIngestDeterministic(t *testing.T) {
	root := buildRepo(t)
	writeFile(t, root, "README.md", "# Title")
	writeFile(t, root, ".hidden/x.txt", "x")

	first, err := Ingest(testConfig(root))
	require.NoError(t, err)
	second, err := Ingest(testConfig(root))
	require.NoError(t, err)

	assert.Equal(t, first.Tree, second.Tree)
	assert.Equal(t, first.Content, second.Content)
	assert.True(t, strings.HasPrefix(first.Tree, "Directory structure:\n└── owner-repo/\n    ├── README.md\n"), first.Tree)
	assert.True(t, strings.HasSuffix(first.Tree, "    └── .hidden/\n        └── x.txt\n"), first.Tree)
}

func TestTarget(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "repo")

	tests := []struct {
		subpath string
		want    string
	}{
		{"", root},
		{"/", root},
		{"/src", filepath.Join(root, "src")},
		{"src/a.go", filepath.Join(root, "src", "a.go")},
		{"/../etc", filepath.Join(root, "etc")},
	}
	for _, tt := range tests {
		got, err := Config{Root: root, Subpath: tt.subpath}.Target()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.subpath)
	}
}

func TestSlug(t *testing.T) {
	sep := string(filepath.Separator)
	assert.Equal(t, "projects/app", Slug(sep+filepath.Join("home", "projects", "app")))
	assert.Equal(t, "app", Slug(sep+"app"))
	assert.Equal(t, "explicit", Config{Root: ".", Slug: "explicit"}.DisplaySlug())
}
