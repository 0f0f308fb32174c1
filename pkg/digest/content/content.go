// Package content classifies files as text or binary and reads their
// content with encoding fallback. Reading never fails: any problem is
// reported as a placeholder string so one bad file cannot abort a scan.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Placeholders stored in place of file content.
const (
	NonTextPlaceholder  = "[Non-text file]"
	TooLargePlaceholder = "[Content ignored: file too large]"
)

// sniffSize is how many leading bytes IsText inspects.
const sniffSize = 1024

// textControl holds the control bytes allowed in text: BEL, BS, TAB, LF, FF, CR, ESC.
var textControl = [256]bool{7: true, 8: true, 9: true, 10: true, 12: true, 13: true, 27: true}

// IsText reports whether the file at path looks like text. It inspects the
// first 1024 bytes. Unreadable files are classified as binary.
func IsText(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}
	return IsTextBytes(buf[:n])
}

// IsTextBytes reports whether every byte is printable (0x20 and above) or
// one of the allowed control bytes.
func IsTextBytes(b []byte) bool {
	for _, c := range b {
		if c < 0x20 && !textControl[c] {
			return false
		}
	}
	return true
}

// Converter turns a special file format into plain text.
type Converter func(path string) (string, error)

// Reader reads file content, delegating registered extensions to converters.
// The zero value reads every file as plain text.
type Reader struct {
	converters map[string]Converter
	encodings  []encoding.Encoding
}

// Option configures a Reader.
type Option func(*Reader)

// WithConverter registers fn for files with the given extension (".ipynb").
// Extensions are compared case-insensitively.
func WithConverter(ext string, fn Converter) Option {
	return func(r *Reader) {
		if fn == nil {
			return
		}
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.converters[ext] = fn
	}
}

// WithEncodings replaces the fallback decoders tried after UTF-8.
func WithEncodings(encs ...encoding.Encoding) Option {
	return func(r *Reader) {
		r.encodings = encs
	}
}

// NewReader returns a Reader with the platform's fallback encodings.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		converters: make(map[string]Converter),
		encodings:  FallbackEncodings(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FallbackEncodings returns the decoders tried when content is not valid
// UTF-8, in priority order.
func FallbackEncodings() []encoding.Encoding {
	if runtime.GOOS == "windows" {
		return []encoding.Encoding{charmap.Windows1252, charmap.ISO8859_1}
	}
	return []encoding.Encoding{charmap.ISO8859_1, charmap.Windows1252}
}

// HasConverter reports whether a converter is registered for path's extension.
func (r *Reader) HasConverter(path string) bool {
	if r == nil || r.converters == nil {
		return false
	}
	_, ok := r.converters[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Read returns the decoded content of path. I/O and conversion failures are
// returned as placeholder text, never as errors.
func (r *Reader) Read(path string) string {
	if r != nil && r.converters != nil {
		if fn, ok := r.converters[strings.ToLower(filepath.Ext(path))]; ok {
			text, err := fn(path)
			if err != nil {
				return fmt.Sprintf("Error processing %s: %v", filepath.Base(path), err)
			}
			return text
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err)
	}

	var encs []encoding.Encoding
	if r != nil {
		encs = r.encodings
	} else {
		encs = FallbackEncodings()
	}
	return Decode(data, encs...)
}

// Decode decodes data as UTF-8 (dropping a byte order mark), then tries each
// fallback in order. When no decoder accepts the data, invalid sequences are
// replaced with U+FFFD.
func Decode(data []byte, fallbacks ...encoding.Encoding) string {
	if utf8.Valid(data) {
		out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
		if err == nil {
			return string(out)
		}
		return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	}

	for _, enc := range fallbacks {
		out, err := enc.NewDecoder().Bytes(data)
		if err == nil && utf8.Valid(out) {
			return string(out)
		}
	}

	return strings.ToValidUTF8(string(data), "\uFFFD")
}
