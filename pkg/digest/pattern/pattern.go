// Package pattern provides include/exclude glob matching for the digest
// ingestion engine. Patterns use shell-glob syntax and are matched against
// paths relative to the scan root, using '/' as the separator on every
// platform.
//
// Basic usage:
//
//	include, err := pattern.Parse("*.go, docs/")
//	if err != nil {
//	    return err
//	}
//	excludes := pattern.MergeExcludes(pattern.DefaultExcludes, nil, include)
//	m, err := pattern.Compile(excludes)
//	if err != nil {
//	    return err
//	}
//	if m.ShouldExclude("/repo/node_modules", "/repo") {
//	    // skip
//	}
package pattern

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// ErrInvalidPattern indicates a user-supplied pattern contains characters
// outside the allowed set.
var ErrInvalidPattern = errors.New("invalid pattern")

// allowedSymbols lists the non-alphanumeric characters a user pattern may contain.
const allowedSymbols = "-_./+*@"

// DefaultExcludes contains the patterns every scan excludes unless an include
// pattern names them explicitly.
var DefaultExcludes = []string{
	// Version control
	".git", ".svn", ".hg", ".bzr", ".gitignore", ".gitattributes", ".gitmodules",
	// Dependencies and caches
	"node_modules", "bower_components", "vendor/bundle", ".pnpm-store",
	"__pycache__", ".pytest_cache", ".mypy_cache", ".ruff_cache", ".tox", ".cache",
	"venv", ".venv", "env", ".gradle", ".terraform",
	// IDEs and OS metadata
	".idea", ".vscode", ".DS_Store", "Thumbs.db",
	// Build output
	"build", "dist", "target", "out", "*.egg-info", ".next", ".nuxt", "coverage",
	// Lockfiles
	"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "npm-shrinkwrap.json",
	"poetry.lock", "Pipfile.lock", "Cargo.lock", "go.sum", "composer.lock", "Gemfile.lock",
	// Compiled and binary artifacts
	"*.pyc", "*.pyo", "*.pyd", "*.class", "*.o", "*.obj", "*.a", "*.lib",
	"*.so", "*.dylib", "*.dll", "*.exe", "*.bin", "*.jar", "*.war",
	// Archives and media
	"*.zip", "*.tar", "*.gz", "*.tgz", "*.bz2", "*.xz", "*.7z", "*.rar",
	"*.svg", "*.png", "*.jpg", "*.jpeg", "*.gif", "*.ico", "*.bmp", "*.webp",
	"*.mp3", "*.mp4", "*.mov", "*.wav", "*.pdf",
	// Temporary files
	"*.log", "*.bak", "*.swp", "*.tmp",
	// Legal and housekeeping files
	"LICENSE", "LICENSE.*", "LICENCE", "LICENCE.*", "COPYING", "COPYING.*", "COPYRIGHT",
	"AUTHORS", "AUTHORS.*", "CONTRIBUTORS", "CONTRIBUTORS.*", "THANKS", "THANKS.*",
	"CHANGELOG", "CHANGELOG.*", "CONTRIBUTING", "CONTRIBUTING.*",
}

// Parse splits, validates and normalizes user-supplied patterns.
// Each input may hold several patterns separated by commas or spaces.
// The result is deduplicated and sorted.
//
// Returns ErrInvalidPattern if any pattern contains a character other than a
// letter, a digit, or one of "-_./+*@".
func Parse(inputs ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, input := range inputs {
		fields := strings.FieldsFunc(input, func(r rune) bool {
			return r == ',' || r == ' '
		})
		for _, p := range fields {
			if !Valid(p) {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, p)
			}
			p = Normalize(p)
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Valid reports whether p contains only allowed characters.
func Valid(p string) bool {
	if p == "" {
		return false
	}
	for _, r := range p {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(allowedSymbols, r) {
			continue
		}
		return false
	}
	return true
}

// Normalize strips one leading separator and turns a trailing separator
// into a wildcard, so "src/" matches everything beneath src.
func Normalize(p string) string {
	p = strings.TrimPrefix(p, "/")
	if strings.HasSuffix(p, "/") {
		p += "*"
	}
	return p
}

// MergeExcludes returns the union of defaults and user excludes with every
// pattern that also appears in include removed. An explicit include always
// wins over an exclusion of the same pattern.
func MergeExcludes(defaults, user, include []string) []string {
	drop := make(map[string]struct{}, len(include))
	for _, p := range include {
		drop[p] = struct{}{}
	}

	seen := make(map[string]struct{}, len(defaults)+len(user))
	out := make([]string, 0, len(defaults)+len(user))
	for _, p := range slices.Concat(defaults, user) {
		if _, ok := drop[p]; ok {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
