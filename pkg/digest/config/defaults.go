// Package config provides configuration management for the digest CLI.
package config

import (
	"github.com/jamesainslie/digest/pkg/digest/limits"
)

// Default configuration values for digest.
const (
	// DefaultMaxFileSize is the per-file size above which content is omitted.
	DefaultMaxFileSize = "10MB"

	// DefaultMaxTotalSize is the cumulative size budget of one scan.
	DefaultMaxTotalSize = "500MB"

	// DefaultMaxDepth is the deepest directory level a scan descends into.
	DefaultMaxDepth = limits.DefaultMaxDepth

	// DefaultMaxFiles is the number of files a scan may admit.
	DefaultMaxFiles = limits.DefaultMaxFiles

	// DefaultOutput is the file the digest is written to.
	DefaultOutput = "digest.txt"

	// DefaultFormat is the digest layout.
	DefaultFormat = "text"

	// DefaultLogLevel is the file log level.
	DefaultLogLevel = "info"

	// DefaultLogMaxSize is the log size that triggers rotation.
	DefaultLogMaxSize = "10MB"

	// DefaultLogMaxBackups is the number of rotated logs kept.
	DefaultLogMaxBackups = 3

	// DefaultLogMaxAge is the number of days rotated logs are kept.
	DefaultLogMaxAge = 30

	// EnvPrefix prefixes environment overrides, e.g. DIGEST_MAX_FILE_SIZE.
	EnvPrefix = "DIGEST"
)

// DefaultComponentLevels sets per-component log levels.
var DefaultComponentLevels = map[string]string{
	"scanner":  "info",
	"ingest":   "info",
	"tokens":   "warn",
	"notebook": "warn",
	"cli":      "info",
}
