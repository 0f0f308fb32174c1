package pattern

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiled is a single glob compiled once per scan.
type compiled struct {
	raw      string
	g        glob.Glob
	baseName bool // pattern has no '/', so it is also tried against the base name
}

// Matcher evaluates a fixed set of glob patterns. It is safe for concurrent use.
type Matcher struct {
	patterns []compiled
}

// Compile compiles patterns into a Matcher. Blank patterns are dropped and
// never match. '*' matches across '/' as in fnmatch.
func Compile(patterns []string) (*Matcher, error) {
	m := &Matcher{patterns: make([]compiled, 0, len(patterns))}
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, p, err)
		}
		m.patterns = append(m.patterns, compiled{
			raw:      p,
			g:        g,
			baseName: !strings.Contains(p, "/"),
		})
	}
	return m, nil
}

// mustCompile is like Compile but panics on error, for pattern sets known to
// be valid.
func mustCompile(patterns []string) *Matcher {
	m, err := Compile(patterns)
	if err != nil {
		panic(err)
	}
	return m
}

// Empty reports whether the matcher holds no patterns.
func (m *Matcher) Empty() bool {
	return m == nil || len(m.patterns) == 0
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}

// Match reports whether the '/'-separated relative path matches any pattern,
// returning the first pattern that matched.
func (m *Matcher) Match(rel string) (bool, string) {
	if m == nil || rel == "" {
		return false, ""
	}
	base := path.Base(rel)
	for _, c := range m.patterns {
		if c.g.Match(rel) || (c.baseName && c.g.Match(base)) {
			return true, c.raw
		}
	}
	return false, ""
}

// ShouldExclude reports whether path, taken relative to root, matches any
// pattern. A path outside root is always excluded; root itself never is.
func (m *Matcher) ShouldExclude(p, root string) bool {
	rel, ok := Rel(p, root)
	if !ok {
		return true
	}
	if rel == "" {
		return false
	}
	matched, _ := m.Match(rel)
	return matched
}

// ShouldInclude reports whether path, taken relative to root, matches any
// pattern. An empty matcher is not this function's concern: callers treat an
// empty include set as "include everything".
func (m *Matcher) ShouldInclude(p, root string) bool {
	rel, ok := Rel(p, root)
	if !ok || rel == "" {
		return false
	}
	matched, _ := m.Match(rel)
	return matched
}

// Rel returns p relative to root with '/' separators. The second result is
// false when p does not lie under root. Root itself yields "".
func Rel(p, root string) (string, bool) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return strings.TrimPrefix(rel, "/"), true
}
