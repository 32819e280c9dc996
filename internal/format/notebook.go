package format

import (
	"encoding/json"
	"fmt"
	"strings"
)

type notebook struct {
	Cells []struct {
		CellType string          `json:"cell_type"`
		Source   json.RawMessage `json:"source"`
	} `json:"cells"`
}

// NotebookText joins the sources of every markdown and code cell of a
// Jupyter or Colab notebook, blank line separated.
func NotebookText(raw []byte) (string, error) {
	var nb notebook
	if err := json.Unmarshal(raw, &nb); err != nil {
		return "", fmt.Errorf("json.Unmarshal failed: %w", err)
	}

	parts := make([]string, 0, len(nb.Cells))
	for _, c := range nb.Cells {
		if c.CellType != "markdown" && c.CellType != "code" {
			continue
		}
		if src := strings.TrimSpace(cellSource(c.Source)); src != "" {
			parts = append(parts, src)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

// Source is either one string or a list of lines.
func cellSource(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}

	return ""
}
