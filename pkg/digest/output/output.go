// Package output renders an ingestion result in the format selected by the
// caller (text, json, yaml).
//
// Formatters are kept in a registry and looked up by name:
//
//	formatter, err := output.Get("json")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.FromIngest(slug, res)); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/digest/pkg/digest/ingest"
	"github.com/jamesainslie/digest/pkg/digest/logging"
	"github.com/jamesainslie/digest/pkg/digest/types"
)

var logger = logging.Get("output")

// DefaultFormat is the plain digest layout: tree, blank line, file blocks.
const DefaultFormat = "text"

// Result is the data handed to a Formatter.
type Result struct {
	// Source names what was ingested (the display slug).
	Source string

	Summary string
	Tree    string
	Content string

	// Tokens is the formatted token estimate, empty when unavailable.
	Tokens string

	Files []types.ExtractedFile

	FilesCounted int
	BytesCounted int64
}

// FromIngest wraps an ingestion result for formatting.
func FromIngest(source string, r *ingest.Result) *Result {
	return &Result{
		Source:       source,
		Summary:      r.Summary,
		Tree:         r.Tree,
		Content:      r.Content,
		Tokens:       r.Tokens,
		Files:        r.Files,
		FilesCounted: r.FilesCounted,
		BytesCounted: r.BytesCounted,
	}
}

// Formatter writes a Result in one output format.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry maps format names to formatter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds or replaces a formatter factory.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (available: %v)", name, r.available())
	}
	logger.Debug("formatter selected", "format", name)
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available()
}

func (r *Registry) available() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
