package format

import (
	"strings"

	"google.golang.org/api/docs/v1"
)

// DocumentText walks a Google Doc body, tables included, and returns the
// concatenated text runs.
func DocumentText(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}

	var b strings.Builder
	writeStructural(&b, doc.Body.Content)

	return normalizeLines(b.String())
}

func writeStructural(b *strings.Builder, content []*docs.StructuralElement) {
	for _, el := range content {
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					writeStructural(b, cell.Content)
				}
			}
		case el.TableOfContents != nil:
			writeStructural(b, el.TableOfContents.Content)
		}
	}
}
