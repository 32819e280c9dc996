package format

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// UnwrapTableLayout replaces single-column tables used for page layout
// (common in marketing email) with their cell content, one <br> per row.
// Tables with headers, captions or several columns are kept. Input that
// cannot be parsed or rendered is returned unchanged.
func UnwrapTableLayout(raw []byte) []byte {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return raw
	}

	unwrapLayoutTables(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return raw
	}

	return buf.Bytes()
}

// Children first, so nested layout tables collapse from the inside out.
func unwrapLayoutTables(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		unwrapLayoutTables(c)
		c = next
	}

	if n.Type == html.ElementNode && n.DataAtom == atom.Table && isLayoutTable(n) {
		unwrapTable(n)
	}
}

func isLayoutTable(table *html.Node) bool {
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Caption || c.DataAtom == atom.Thead) {
			return false
		}
	}

	for _, row := range tableRows(table) {
		cells := 0
		for c := row.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Th:
				return false
			case atom.Td:
				cells++
			}
		}
		if cells > 1 {
			return false
		}
	}

	return true
}

// tableRows returns the rows of table itself, not of nested tables.
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Tr:
			rows = append(rows, c)
		case atom.Tbody, atom.Tfoot, atom.Thead:
			for r := c.FirstChild; r != nil; r = r.NextSibling {
				if r.Type == html.ElementNode && r.DataAtom == atom.Tr {
					rows = append(rows, r)
				}
			}
		}
	}
	return rows
}

func unwrapTable(table *html.Node) {
	parent := table.Parent
	if parent == nil {
		return
	}

	for _, row := range tableRows(table) {
		moved := false
		for cell := row.FirstChild; cell != nil; cell = cell.NextSibling {
			if cell.Type != html.ElementNode || cell.DataAtom != atom.Td {
				continue
			}
			for c := cell.FirstChild; c != nil; {
				next := c.NextSibling
				cell.RemoveChild(c)
				parent.InsertBefore(c, table)
				moved = true
				c = next
			}
		}
		if moved {
			parent.InsertBefore(&html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br}, table)
		}
	}

	parent.RemoveChild(table)
}
