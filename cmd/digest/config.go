package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/digest/pkg/digest/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage digest configuration settings.

Configuration is loaded from:
  1. the file named by --config
  2. $XDG_CONFIG_HOME/digest/config.yaml

Environment variables can override config file settings using the DIGEST_ prefix:
  DIGEST_MAX_FILE_SIZE=1MB
  DIGEST_LIMITS_MAX_FILES=500
  DIGEST_EXCLUDE="testdata *.pb.go"`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configPath returns the file in use: --config when given, else the XDG file.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(config.ConfigDir(), "config.yaml")
}

// runConfigShow displays the effective configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Unmarshal(settings)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	if used := settings.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", used)
	} else {
		fmt.Fprintf(out, "Config file: (using defaults, no file found)\n\n")
	}

	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintf(out, "max_file_size:         %s\n", cfg.MaxFileSize)
	fmt.Fprintf(out, "output:                %s\n", cfg.Output)
	fmt.Fprintf(out, "format:                %s\n", cfg.Format)
	fmt.Fprintf(out, "include:               %v\n", cfg.Include)
	fmt.Fprintf(out, "exclude:               %v\n", cfg.Exclude)
	fmt.Fprintf(out, "gitignore:             %t\n", cfg.Gitignore)
	fmt.Fprintf(out, "limits.max_depth:      %d\n", cfg.Limits.MaxDepth)
	fmt.Fprintf(out, "limits.max_files:      %d\n", cfg.Limits.MaxFiles)
	fmt.Fprintf(out, "limits.max_total_size: %s\n", cfg.Limits.MaxTotalSize)
	fmt.Fprintf(out, "logging.level:         %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "logging.path:          %s\n", cfg.LoggingConfig().Path)

	fmt.Fprintln(out, "\nEnvironment Overrides:")
	fmt.Fprintln(out, "----------------------")
	anyOverrides := false
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			fmt.Fprintln(out, kv)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Fprintln(out, "(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if cfgFile == "" {
		if _, err := config.WriteDefault(); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose(cmd, "Opening %s with %s", path, editor)

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(config.ConfigDir(), "config.yaml")
	if _, err := os.Stat(path); err == nil {
		printInfo(cmd, "Config file already exists: %s", path)
		printInfo(cmd, "Use 'digest config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo(cmd, "Created default config file: %s", path)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	path := configPath()
	fmt.Fprintln(cmd.OutOrStdout(), path)

	if _, err := os.Stat(path); err == nil {
		printVerbose(cmd, "File exists")
	} else if os.IsNotExist(err) {
		printVerbose(cmd, "File does not exist (will use defaults)")
	}
	return nil
}
