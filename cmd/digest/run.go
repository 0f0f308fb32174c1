package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/digest/pkg/digest/config"
	"github.com/jamesainslie/digest/pkg/digest/content"
	"github.com/jamesainslie/digest/pkg/digest/ingest"
	"github.com/jamesainslie/digest/pkg/digest/logging"
	"github.com/jamesainslie/digest/pkg/digest/notebook"
	"github.com/jamesainslie/digest/pkg/digest/output"
)

// stdoutOutput selects stdout as the digest destination.
const stdoutOutput = "-"

// runDigest ingests the target and writes the digest.
func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Unmarshal(settings)
	if err != nil {
		return err
	}

	initLogging(cmd, cfg)
	defer func() { _ = logging.Close() }()

	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	ic, err := buildIngestConfig(cfg, target)
	if err != nil {
		return err
	}

	log := logging.Get("cli").With("run", uuid.NewString())
	log.Info("run started", "target", target, "root", ic.Root, "subpath", ic.Subpath, "type", ic.Type)
	start := time.Now()

	format := cfg.Format
	if format == "" {
		format = output.DefaultFormat
	}
	formatter, err := output.Get(format)
	if err != nil {
		return err
	}

	res, err := ingest.Ingest(ic)
	if err != nil {
		log.Error("ingestion failed", "error", err)
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, output.FromIngest(ic.DisplaySlug(), res)); err != nil {
		return fmt.Errorf("formatting digest: %w", err)
	}

	dest := cfg.Output
	if dest == "" {
		dest = config.DefaultOutput
	}
	if dest == stdoutOutput {
		if _, err := buf.WriteTo(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("writing digest: %w", err)
		}
	} else if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing digest: %w", err)
	}

	log.Info("run finished",
		"output", dest,
		"format", format,
		"files", res.FilesCounted,
		"bytes", res.BytesCounted,
		"tokens", res.Tokens,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if dest != stdoutOutput {
		printInfo(cmd, "%s", res.Summary)
		printInfo(cmd, "\nDigest written to %s (%s)", dest, humanize.IBytes(uint64(buf.Len())))
	}
	return nil
}

// initLogging configures file logging from cfg and console logging from the
// verbosity flags. A log file that cannot be opened disables file output
// instead of failing the run.
func initLogging(cmd *cobra.Command, cfg *config.Config) {
	lc := cfg.LoggingConfig()
	lc.Console = cmd.ErrOrStderr()
	switch {
	case getVerbose():
		lc.ConsoleLevel = "debug"
	case getQuiet():
		lc.ConsoleLevel = "error"
	}

	if err := logging.Init(lc); err != nil {
		lc.Path = ""
		_ = logging.Init(lc)
		logging.Get("cli").Warn("file logging disabled", "error", err)
	}
}

// buildIngestConfig maps a local path and the configuration to an ingestion
// request. A directory is ingested whole; a file is ingested on its own,
// rooted at its parent directory.
func buildIngestConfig(cfg *config.Config, target string) (ingest.Config, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return ingest.Config{}, fmt.Errorf("resolving %s: %w", target, err)
	}

	maxFileSize, err := cfg.MaxFileSizeBytes()
	if err != nil {
		return ingest.Config{}, err
	}
	maxTotal, err := cfg.MaxTotalBytes()
	if err != nil {
		return ingest.Config{}, err
	}

	ic := ingest.DefaultConfig(abs)
	ic.Slug = ingest.Slug(abs)
	ic.Include = trimPatterns(cfg.Include)
	ic.Exclude = trimPatterns(cfg.Exclude)
	ic.MaxFileSize = maxFileSize
	ic.MaxDepth = cfg.Limits.MaxDepth
	ic.MaxFiles = cfg.Limits.MaxFiles
	ic.MaxTotalBytes = maxTotal
	ic.UseGitignore = cfg.Gitignore
	ic.Converters = map[string]content.Converter{
		notebook.Extension: notebook.Convert,
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Let ingestion report the missing target under its slug.
		ic.Root = filepath.Dir(abs)
		ic.Subpath = "/" + filepath.Base(abs)
	case err != nil:
		return ingest.Config{}, fmt.Errorf("accessing %s: %w", target, err)
	case !info.IsDir():
		ic.Root = filepath.Dir(abs)
		ic.Subpath = "/" + filepath.Base(abs)
		ic.Type = ingest.TypeBlob
	}

	return ic, nil
}

// trimPatterns drops empty entries left by flag or env parsing.
func trimPatterns(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
