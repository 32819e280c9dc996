package format_test

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/docs/v1"

	"github.com/hal9000y/mcp-chat/internal/format"
)

func TestHTML2Text(t *testing.T) {
	cases := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "paragraphs",
			html:     "<html><head><title>T</title><style>p{color:red}</style></head><body><p>Hello   <b>world</b>.</p><p>Second&nbsp;line</p></body></html>",
			expected: "Hello world.\n\nSecond line",
		},
		{
			name:     "lists_and_breaks",
			html:     "<ul><li>one</li><li>two</li></ul>a<br>b",
			expected: "- one\n\n- two\n\na\nb",
		},
		{
			name:     "scripts_dropped",
			html:     "<div>visible<script>alert(1)</script></div>",
			expected: "visible",
		},
		{
			name:     "table_cells",
			html:     "<table><tr><th>Name</th><th>Qty</th></tr><tr><td>Pens</td><td>3</td></tr></table>",
			expected: "Name Qty\n\nPens 3",
		},
		{
			name:     "links",
			html:     `<p>Read <a href="https://example.org/post">the post</a> or <a href="https://go.dev">https://go.dev</a> or <a href="#top">top</a></p>`,
			expected: "Read the post (https://example.org/post) or https://go.dev or top",
		},
		{
			name:     "empty",
			html:     "",
			expected: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, format.HTML2Text([]byte(tc.html)))
		})
	}
}

func TestUnwrapTableLayout(t *testing.T) {
	cases := []struct {
		name        string
		html        string
		contains    []string
		notContains []string
	}{
		{
			name:        "single_column_layout",
			html:        `<table id="main"><tr><td><p>Hi there</p></td></tr><tr><td>Footer</td></tr></table>`,
			contains:    []string{"<p>Hi there</p><br/>Footer<br/>"},
			notContains: []string{"<table", "<td"},
		},
		{
			name:     "nested_layout",
			html:     `<table><tr><td><table><tr><td>Inner</td></tr></table></td></tr></table>`,
			contains: []string{"Inner<br/>"},
			notContains: []string{"<table"},
		},
		{
			name:     "data_table_kept",
			html:     `<table><tr><td>a</td><td>b</td></tr></table>`,
			contains: []string{"<table>", "<td>a</td><td>b</td>"},
		},
		{
			name:     "header_table_kept",
			html:     `<table><tr><th>Only</th></tr><tr><td>x</td></tr></table>`,
			contains: []string{"<th>Only</th>"},
		},
		{
			name:        "layout_around_data",
			html:        `<table><tr><td><table><tr><td>a</td><td>b</td></tr></table></td></tr></table>`,
			contains:    []string{"<td>a</td><td>b</td>"},
			notContains: []string{"<table><tbody><tr><td><table>"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := string(format.UnwrapTableLayout([]byte(tc.html)))
			for _, s := range tc.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tc.notContains {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestUnwrapTableLayoutIdempotent(t *testing.T) {
	in := []byte(`<table><tr><td>One</td></tr><tr><td><table><tr><td>x</td><td>y</td></tr></table></td></tr></table>`)

	once := format.UnwrapTableLayout(in)
	twice := format.UnwrapTableLayout(once)

	assert.Equal(t, string(once), string(twice))
}

func newDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestDocxText(t *testing.T) {
	doc := newDocx(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Please send the report</w:t></w:r><w:r><w:t xml:space="preserve"> to bob@example.com.</w:t></w:r></w:p>
<w:p><w:r><w:t>Col1</w:t><w:tab/><w:t>Col2</w:t></w:r></w:p>
</w:body>
</w:document>`)

	text, err := format.DocxText(doc)
	require.NoError(t, err)
	assert.Equal(t, "Please send the report to bob@example.com.\nCol1\tCol2", text)

	_, err = format.DocxText([]byte("not a zip"))
	assert.Error(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	require.NoError(t, zw.Close())
	_, err = format.DocxText(buf.Bytes())
	assert.ErrorIs(t, err, format.ErrNoDocumentXML)
}

func TestNotebookText(t *testing.T) {
	nb := `{"cells":[
		{"cell_type":"markdown","source":["# Steps\n","Please review the data."]},
		{"cell_type":"code","source":"print('hi')"},
		{"cell_type":"raw","source":"ignored"},
		{"cell_type":"code","source":[]}
	]}`

	text, err := format.NotebookText([]byte(nb))
	require.NoError(t, err)
	assert.Equal(t, "# Steps\nPlease review the data.\n\nprint('hi')", text)

	_, err = format.NotebookText([]byte("{"))
	assert.Error(t, err)
}

func TestDocumentText(t *testing.T) {
	para := func(s string) *docs.StructuralElement {
		return &docs.StructuralElement{Paragraph: &docs.Paragraph{
			Elements: []*docs.ParagraphElement{{TextRun: &docs.TextRun{Content: s}}},
		}}
	}

	doc := &docs.Document{Body: &docs.Body{Content: []*docs.StructuralElement{
		para("Title\n"),
		para("Schedule a meeting about budgets.\n"),
		{Table: &docs.Table{TableRows: []*docs.TableRow{{
			TableCells: []*docs.TableCell{{Content: []*docs.StructuralElement{para("cell text\n")}}},
		}}}},
	}}}

	assert.Equal(t, "Title\nSchedule a meeting about budgets.\ncell text", format.DocumentText(doc))
	assert.Equal(t, "", format.DocumentText(nil))
}

func TestHTML2MD(t *testing.T) {
	cnv := format.Converter{}
	if !cnv.MarkdownSupported() {
		t.Skip("pandoc not found in PATH")
	}

	md, err := cnv.HTML2MD(context.Background(), []byte(`<table><tr><td><p>Some <strong>bold</strong> text</p></td></tr></table>`))
	require.NoError(t, err)
	assert.Contains(t, md, "**bold**")
	assert.False(t, strings.Contains(md, "|"), "layout table should not render as a markdown table")
}

func TestPDF2TextMissingTool(t *testing.T) {
	cnv := format.Converter{}
	if cnv.PDFSupported() {
		t.Skip("pdftohtml is installed")
	}

	_, err := cnv.PDF2Text(context.Background(), []byte("%PDF-1.4"))
	assert.Error(t, err)
}
