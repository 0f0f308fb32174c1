package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jamesainslie/digest/pkg/digest/config"
	"github.com/jamesainslie/digest/pkg/digest/ingest"
	"github.com/jamesainslie/digest/pkg/digest/notebook"
	"github.com/jamesainslie/digest/pkg/digest/types"
)

// isolate points the XDG directories at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tempDir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tempDir, "state"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return tempDir
}

// resetFlags restores every flag of cmd and its subcommands to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})
	err := Execute()
	return stdout.String(), err
}

// buildRepo creates a small directory tree and returns its root.
func buildRepo(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "project")
	files := map[string]string{
		"main.go":        "package main\n",
		"README.md":      "# project\n",
		"docs/guide.txt": "read me\n",
	}
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestBuildIngestConfig(t *testing.T) {
	isolate(t)
	root := buildRepo(t)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	cfg.MaxFileSize = "1K"
	cfg.Include = []string{"*.go", " ", ""}
	cfg.Gitignore = true

	tests := []struct {
		name        string
		target      string
		wantRoot    string
		wantSubpath string
		wantType    ingest.Type
		wantSlug    string
	}{
		{
			name:        "directory",
			target:      root,
			wantRoot:    root,
			wantSubpath: "/",
			wantType:    ingest.TypeTree,
			wantSlug:    filepath.Base(filepath.Dir(root)) + "/project",
		},
		{
			name:        "file",
			target:      filepath.Join(root, "main.go"),
			wantRoot:    root,
			wantSubpath: "/main.go",
			wantType:    ingest.TypeBlob,
			wantSlug:    "project/main.go",
		},
		{
			name:        "missing",
			target:      filepath.Join(root, "nope"),
			wantRoot:    root,
			wantSubpath: "/nope",
			wantType:    ingest.TypeTree,
			wantSlug:    "project/nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ic, err := buildIngestConfig(cfg, tt.target)
			if err != nil {
				t.Fatalf("buildIngestConfig() error = %v", err)
			}
			if ic.Root != tt.wantRoot {
				t.Errorf("Root = %q, want %q", ic.Root, tt.wantRoot)
			}
			if ic.Subpath != tt.wantSubpath {
				t.Errorf("Subpath = %q, want %q", ic.Subpath, tt.wantSubpath)
			}
			if ic.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", ic.Type, tt.wantType)
			}
			if ic.Slug != tt.wantSlug {
				t.Errorf("Slug = %q, want %q", ic.Slug, tt.wantSlug)
			}
			if ic.MaxFileSize != types.KiB {
				t.Errorf("MaxFileSize = %d, want %d", ic.MaxFileSize, types.KiB)
			}
			if len(ic.Include) != 1 || ic.Include[0] != "*.go" {
				t.Errorf("Include = %q, want [*.go]", ic.Include)
			}
			if !ic.UseGitignore {
				t.Error("UseGitignore = false, want true")
			}
			if _, ok := ic.Converters[notebook.Extension]; !ok {
				t.Errorf("Converters missing %s", notebook.Extension)
			}
		})
	}
}

func TestBuildIngestConfig_InvalidSize(t *testing.T) {
	isolate(t)
	cfg := &config.Config{MaxFileSize: "huge", Limits: config.LimitsConfig{MaxTotalSize: "1MB"}}

	_, err := buildIngestConfig(cfg, t.TempDir())
	if !errors.Is(err, types.ErrInvalidSize) {
		t.Errorf("buildIngestConfig() error = %v, want %v", err, types.ErrInvalidSize)
	}
}

func TestRun_WritesDigest(t *testing.T) {
	isolate(t)
	root := buildRepo(t)
	out := filepath.Join(t.TempDir(), "digest.txt")

	stdout, err := execute(t, root, "-o", out)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	digest := string(data)
	for _, want := range []string{
		"Directory structure:\n",
		"└── ",
		"File: main.go\n",
		"package main\n",
		"File: docs/guide.txt\n",
	} {
		if !strings.Contains(digest, want) {
			t.Errorf("digest missing %q:\n%s", want, digest)
		}
	}

	if !strings.Contains(stdout, "Files analyzed: 3") {
		t.Errorf("stdout missing file count:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Digest written to "+out) {
		t.Errorf("stdout missing output path:\n%s", stdout)
	}
}

func TestRun_Stdout(t *testing.T) {
	isolate(t)
	root := buildRepo(t)

	stdout, err := execute(t, root, "-o", "-", "-i", "*.md")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.HasPrefix(stdout, "Directory structure:\n") {
		t.Errorf("stdout should start with the tree:\n%s", stdout)
	}
	if !strings.Contains(stdout, "File: README.md\n") {
		t.Errorf("stdout missing README.md:\n%s", stdout)
	}
	if strings.Contains(stdout, "package main") {
		t.Errorf("stdout contains content of an unmatched file:\n%s", stdout)
	}
	if strings.Contains(stdout, "Files analyzed:") {
		t.Errorf("summary printed in stdout mode:\n%s", stdout)
	}
}

func TestRun_JSONFormat(t *testing.T) {
	isolate(t)
	root := buildRepo(t)

	stdout, err := execute(t, root, "-o", "-", "-f", "json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var doc struct {
		Source string `json:"source"`
		Files  []struct {
			Path string `json:"path"`
		} `json:"files"`
	}
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if !strings.HasSuffix(doc.Source, "/project") {
		t.Errorf("source = %q", doc.Source)
	}
	if len(doc.Files) != 3 {
		t.Errorf("len(files) = %d, want 3", len(doc.Files))
	}
}

func TestRun_UnknownFormat(t *testing.T) {
	isolate(t)
	root := buildRepo(t)
	out := filepath.Join(t.TempDir(), "digest.txt")

	_, err := execute(t, root, "-o", out, "-f", "xml")
	if err == nil || !strings.Contains(err.Error(), `unknown format "xml"`) {
		t.Fatalf("Execute() error = %v, want unknown format", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("output written for a failed run: %v", statErr)
	}
}

func TestRun_Quiet(t *testing.T) {
	isolate(t)
	root := buildRepo(t)
	out := filepath.Join(t.TempDir(), "digest.txt")

	stdout, err := execute(t, root, "-q", "-o", out)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if stdout != "" {
		t.Errorf("quiet run printed %q", stdout)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestRun_SingleFile(t *testing.T) {
	isolate(t)
	root := buildRepo(t)
	out := filepath.Join(t.TempDir(), "digest.txt")

	stdout, err := execute(t, filepath.Join(root, "main.go"), "-o", out)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(stdout, "File: main.go") || !strings.Contains(stdout, "Lines: 1") {
		t.Errorf("unexpected summary:\n%s", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Directory structure:\n└── main.go\n") {
		t.Errorf("unexpected digest:\n%s", data)
	}
}

func TestRun_MissingTarget(t *testing.T) {
	isolate(t)
	root := buildRepo(t)
	out := filepath.Join(t.TempDir(), "digest.txt")

	_, err := execute(t, filepath.Join(root, "missing"), "-o", out)
	if !errors.Is(err, ingest.ErrNotFound) {
		t.Fatalf("Execute() error = %v, want %v", err, ingest.ErrNotFound)
	}
	if err.Error() != "project/missing cannot be found" {
		t.Errorf("error = %q", err.Error())
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("output written for a failed run: %v", statErr)
	}
}

func TestRun_EnvOverride(t *testing.T) {
	isolate(t)
	root := buildRepo(t)
	out := filepath.Join(t.TempDir(), "env.txt")
	t.Setenv("DIGEST_OUTPUT", out)

	if _, err := execute(t, root); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("DIGEST_OUTPUT not honored: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	stdout, err := execute(t, "version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(stdout, "digest "+version) {
		t.Errorf("version output = %q", stdout)
	}
}

func TestConfigPathCommand(t *testing.T) {
	isolate(t)

	stdout, err := execute(t, "config", "path")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := filepath.Join(config.ConfigDir(), "config.yaml")
	if strings.TrimSpace(stdout) != want {
		t.Errorf("config path = %q, want %q", stdout, want)
	}
}

func TestConfigInitCommand(t *testing.T) {
	isolate(t)

	stdout, err := execute(t, "config", "init")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(stdout, "Created default config file") {
		t.Errorf("config init output = %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(config.ConfigDir(), "config.yaml")); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}
