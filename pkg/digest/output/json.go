package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/digest/pkg/digest/types"
)

// document is the structure shared by the json and yaml formats.
type document struct {
	Source  string    `json:"source" yaml:"source"`
	Summary string    `json:"summary" yaml:"summary"`
	Tree    string    `json:"tree" yaml:"tree"`
	Tokens  string    `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	Stats   docStats  `json:"stats" yaml:"stats"`
	Files   []docFile `json:"files" yaml:"files"`
}

type docStats struct {
	FilesCounted int    `json:"files_counted" yaml:"files_counted"`
	BytesCounted int64  `json:"bytes_counted" yaml:"bytes_counted"`
	BytesHuman   string `json:"bytes_human" yaml:"bytes_human"`
}

type docFile struct {
	Path      string `json:"path" yaml:"path"`
	Size      int64  `json:"size" yaml:"size"`
	SizeHuman string `json:"size_human" yaml:"size_human"`
	Omitted   bool   `json:"omitted,omitempty" yaml:"omitted,omitempty"`
	Content   string `json:"content" yaml:"content"`
}

func buildDocument(r *Result) document {
	files := make([]docFile, len(r.Files))
	for i, f := range r.Files {
		files[i] = docFile{
			Path:      f.Path,
			Size:      f.Size,
			SizeHuman: types.FormatSize(f.Size),
			Omitted:   f.Omitted,
			Content:   f.Content,
		}
	}
	return document{
		Source:  r.Source,
		Summary: r.Summary,
		Tree:    r.Tree,
		Tokens:  r.Tokens,
		Stats: docStats{
			FilesCounted: r.FilesCounted,
			BytesCounted: r.BytesCounted,
			BytesHuman:   types.FormatSize(r.BytesCounted),
		},
		Files: files,
	}
}

// JSONFormatter writes the result as indented JSON with each file's content
// as a string field.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(buildDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
