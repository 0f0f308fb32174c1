package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/jamesainslie/digest/pkg/digest/logging"
	"github.com/jamesainslie/digest/pkg/digest/types"
)

// LimitsConfig bounds a single scan.
type LimitsConfig struct {
	MaxDepth     int    `mapstructure:"max_depth"`
	MaxFiles     int    `mapstructure:"max_files"`
	MaxTotalSize string `mapstructure:"max_total_size"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
}

// Config represents the application configuration.
type Config struct {
	MaxFileSize string        `mapstructure:"max_file_size"`
	Output      string        `mapstructure:"output"`
	Format      string        `mapstructure:"format"`
	Include     []string      `mapstructure:"include"`
	Exclude     []string      `mapstructure:"exclude"`
	Gitignore   bool          `mapstructure:"gitignore"`
	Limits      LimitsConfig  `mapstructure:"limits"`
	Logging     LoggingConfig `mapstructure:"logging"`
}

// NewViper returns a viper instance with defaults, environment binding and
// the config file loaded. An explicit path must exist; otherwise the file is
// looked up in ConfigDir and a missing file is not an error.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("max_file_size", DefaultMaxFileSize)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("include", []string{})
	v.SetDefault("exclude", []string{})
	v.SetDefault("gitignore", false)
	v.SetDefault("limits.max_depth", DefaultMaxDepth)
	v.SetDefault("limits.max_files", DefaultMaxFiles)
	v.SetDefault("limits.max_total_size", DefaultMaxTotalSize)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.components", DefaultComponentLevels)
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_backups", DefaultLogMaxBackups)
	v.SetDefault("logging.rotation.max_age", DefaultLogMaxAge)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - path, when non-empty
//   - $XDG_CONFIG_HOME/digest/config.yaml
//
// Environment variables are prefixed with DIGEST_ (e.g., DIGEST_MAX_FILE_SIZE).
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(v)
}

// Unmarshal decodes v into a validated Config.
func Unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks sizes and log levels.
func (c *Config) Validate() error {
	if _, err := c.MaxFileSizeBytes(); err != nil {
		return err
	}
	if _, err := c.MaxTotalBytes(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	for component, level := range c.Logging.Components {
		if _, err := logging.ParseLevel(level); err != nil {
			return fmt.Errorf("logging.components.%s: %w", component, err)
		}
	}
	if _, err := c.logMaxSize(); err != nil {
		return err
	}
	return nil
}

// logMaxSize parses Logging.Rotation.MaxSize. Empty selects the default.
func (c *Config) logMaxSize() (int64, error) {
	if c.Logging.Rotation.MaxSize == "" {
		return logging.DefaultMaxLogSize, nil
	}
	n, err := types.ParseSize(c.Logging.Rotation.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("logging.rotation.max_size %q: %w", c.Logging.Rotation.MaxSize, err)
	}
	return n, nil
}

// MaxFileSizeBytes parses MaxFileSize.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	n, err := types.ParseSize(c.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("max_file_size %q: %w", c.MaxFileSize, err)
	}
	return n, nil
}

// MaxTotalBytes parses Limits.MaxTotalSize.
func (c *Config) MaxTotalBytes() (int64, error) {
	n, err := types.ParseSize(c.Limits.MaxTotalSize)
	if err != nil {
		return 0, fmt.Errorf("limits.max_total_size %q: %w", c.Limits.MaxTotalSize, err)
	}
	return n, nil
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	if c.Logging.Level != "" {
		lc.Level = c.Logging.Level
	}
	if c.Logging.Path != "" {
		lc.Path = c.Logging.Path
	}
	lc.Components = make(map[string]string, len(c.Logging.Components))
	for component, level := range c.Logging.Components {
		lc.Components[component] = level
	}
	if size, err := c.logMaxSize(); err == nil {
		lc.Rotation.MaxSize = size
	}
	lc.Rotation.MaxBackups = c.Logging.Rotation.MaxBackups
	lc.Rotation.MaxAge = c.Logging.Rotation.MaxAge
	return lc
}

// ConfigDir returns $XDG_CONFIG_HOME/digest.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "digest")
}

// WriteDefault writes a commented default config file if none exists and
// returns its path.
func WriteDefault() (string, error) {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# digest configuration

# Files larger than this are listed but their content is omitted
max_file_size: %s

# Where the digest is written ("-" for stdout)
output: %s

# Digest layout: text, json or yaml
format: %s

# Extra patterns, merged with the built-in exclusions
include: []
exclude: []

# Also skip entries ignored by the root .gitignore
gitignore: false

# Safety limits for a single scan (values above the defaults are capped)
limits:
  max_depth: %d
  max_files: %d
  max_total_size: %s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: %s
  # Log file path (empty means use default: $XDG_STATE_HOME/digest/digest.log)
  path: ""
  # Per-component log levels
  components:
    scanner: info
    ingest: info
    tokens: warn
    notebook: warn
    cli: info
  # Rotate the log file when it grows past max_size
  rotation:
    max_size: %s
    max_backups: %d
    max_age: %d # days
`, DefaultMaxFileSize, DefaultOutput, DefaultFormat, DefaultMaxDepth, DefaultMaxFiles, DefaultMaxTotalSize, DefaultLogLevel,
		DefaultLogMaxSize, DefaultLogMaxBackups, DefaultLogMaxAge)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return configPath, nil
}
