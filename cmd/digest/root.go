package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/digest/pkg/digest/config"
)

var (
	cfgFile string

	// settings merges defaults, config file, environment and flags. It is
	// populated before any command runs.
	settings = viper.New()

	rootCmd = &cobra.Command{
		Use:   "digest [path]",
		Short: "Turn a source tree into a prompt-ready text digest",
		Long: `Digest walks a directory (or reads a single file) and writes an
LLM-friendly text digest: a directory tree followed by the content of every
included text file. A summary with an estimated token count is printed.

Examples:
  digest                       # Digest the current directory into digest.txt
  digest ~/src/project -o -    # Write the digest to stdout
  digest -i '*.go' -i '*.md' . # Only include Go and Markdown files
  digest -e testdata -s 1M .   # Skip testdata, omit files above 1 MiB
  digest main.go               # Digest a single file
  digest -f json -o digest.json .  # Structured output
  digest config show           # Show configuration`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: loadSettings,
		RunE:              runDigest,
		SilenceUsage:      true,
	}
)

// flagBindings maps configuration keys to flag names.
var flagBindings = map[string]string{
	"output":                "output",
	"format":                "format",
	"max_file_size":         "max-size",
	"exclude":               "exclude-pattern",
	"include":               "include-pattern",
	"gitignore":             "gitignore",
	"limits.max_depth":      "max-depth",
	"limits.max_files":      "max-files",
	"limits.max_total_size": "max-total-size",
	"quiet":                 "quiet",
	"verbose":               "verbose",
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/digest/config.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	rootCmd.Flags().StringP("output", "o", "", `output file, "-" for stdout (default "digest.txt")`)
	rootCmd.Flags().StringP("format", "f", "", `digest layout: text, json or yaml (default "text")`)
	rootCmd.Flags().StringP("max-size", "s", "", `omit content of files larger than this (e.g., 100K, 10M; default "10MB")`)
	rootCmd.Flags().StringSliceP("exclude-pattern", "e", nil, "patterns to exclude (can be specified multiple times)")
	rootCmd.Flags().StringSliceP("include-pattern", "i", nil, "patterns to include (can be specified multiple times)")
	rootCmd.Flags().Bool("gitignore", false, "also skip entries ignored by the root .gitignore")
	rootCmd.Flags().Int("max-depth", 0, "deepest directory level to descend into (0=default)")
	rootCmd.Flags().Int("max-files", 0, "maximum number of files to read (0=default)")
	rootCmd.Flags().String("max-total-size", "", "maximum cumulative size of files to read (e.g., 100M)")
}

// loadSettings reads configuration and binds the flags of cmd over it.
func loadSettings(cmd *cobra.Command, args []string) error {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return err
	}
	for key, name := range flagBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}
	settings = v
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return settings.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return settings.GetBool("quiet")
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(cmd *cobra.Command, format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	}
}

// printVerbose prints a message only in verbose mode.
func printVerbose(cmd *cobra.Command, format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	}
}
