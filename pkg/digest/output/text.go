package output

import "bytes"

// TextFormatter writes the digest as the tree, a blank line, and the file
// blocks.
type TextFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TextFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(r.Tree)
	w.WriteString("\n")
	w.WriteString(r.Content)
	return nil
}

func init() {
	Register(DefaultFormat, func() Formatter {
		return &TextFormatter{}
	})
}

var _ Formatter = (*TextFormatter)(nil)
