// Package notebook converts Jupyter notebooks into plain text suitable for an
// ingestion digest. Code cells are emitted verbatim; markdown and raw cells
// are wrapped in triple-quoted blocks so the result reads as a Python script.
package notebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jamesainslie/digest/pkg/digest/logging"
)

// Extension is the file extension handled by Convert.
const Extension = ".ipynb"

var logger = logging.Get("notebook")

// ErrUnknownCellType is returned for a cell type other than code, markdown or raw.
var ErrUnknownCellType = errors.New("unknown cell type")

// ErrNoCells is returned when the document has neither cells nor worksheets.
var ErrNoCells = errors.New("notebook has no cells")

type cell struct {
	CellType string `json:"cell_type"`
	Source   source `json:"source"`
}

type document struct {
	Cells      []cell `json:"cells"`
	Worksheets []struct {
		Cells []cell `json:"cells"`
	} `json:"worksheets"`
}

// source accepts both a list of lines and a single string.
type source string

func (s *source) UnmarshalJSON(data []byte) error {
	var lines []string
	if err := json.Unmarshal(data, &lines); err == nil {
		*s = source(strings.Join(lines, ""))
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("decoding cell source: %w", err)
	}
	*s = source(text)
	return nil
}

// Convert reads the notebook at path and returns its text rendering.
func Convert(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, err := ConvertBytes(data)
	if err != nil {
		return "", fmt.Errorf("converting %s: %w", path, err)
	}
	return text, nil
}

// ConvertBytes renders notebook JSON as text. Legacy documents with
// worksheets use only the first worksheet.
func ConvertBytes(data []byte) (string, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", err
	}

	cells := doc.Cells
	if len(doc.Worksheets) > 0 {
		logger.Warn("worksheets are deprecated, using the first one", "worksheets", len(doc.Worksheets))
		cells = doc.Worksheets[0].Cells
	} else if doc.Cells == nil {
		return "", ErrNoCells
	}

	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		switch c.CellType {
		case "code", "markdown", "raw":
		default:
			return "", fmt.Errorf("%w: %q", ErrUnknownCellType, c.CellType)
		}

		text := string(c.Source)
		if text == "" {
			continue
		}
		if c.CellType != "code" {
			text = "\"\"\"\n" + text + "\n\"\"\""
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n"), nil
}
