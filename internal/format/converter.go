// Package format turns document formats into plain text the extractors
// can read: HTML (email bodies, web pages), PDF, Word documents, Jupyter
// and Colab notebooks and Google Docs.
package format

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
)

const (
	cmdPandoc    = "pandoc"
	cmdPdfToHTML = "pdftohtml"
)

// Converter runs the external conversion tools.
type Converter struct{}

// PDFSupported reports whether pdftohtml is installed.
func (c Converter) PDFSupported() bool {
	_, err := exec.LookPath(cmdPdfToHTML)
	return err == nil
}

// MarkdownSupported reports whether pandoc is installed.
func (c Converter) MarkdownSupported() bool {
	_, err := exec.LookPath(cmdPandoc)
	return err == nil
}

// PDF2Text converts PDF content to plain text through pdftohtml.
func (c Converter) PDF2Text(ctx context.Context, raw []byte) (string, error) {
	out, err := c.pdf2HTML(ctx, raw)
	if err != nil {
		return "", err
	}
	return HTML2Text(UnwrapTableLayout(out)), nil
}

// PDF2MD converts PDF content to Markdown.
func (c Converter) PDF2MD(ctx context.Context, raw []byte) (string, error) {
	out, err := c.pdf2HTML(ctx, raw)
	if err != nil {
		return "", err
	}
	return c.HTML2MD(ctx, out)
}

func (c Converter) pdf2HTML(ctx context.Context, raw []byte) ([]byte, error) {
	tmpPDF, err := os.CreateTemp("", "pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("os.CreateTemp failed: %w", err)
	}
	defer func() {
		if err := tmpPDF.Close(); err != nil {
			log.Warn().Err(err).Msg("tmpPDF.Close failed")
		}
		if err := os.Remove(tmpPDF.Name()); err != nil {
			log.Warn().Err(err).Str("path", tmpPDF.Name()).Msg("os.Remove failed")
		}
	}()

	if _, err := tmpPDF.Write(raw); err != nil {
		return nil, fmt.Errorf("tmpPDF.Write failed: %w", err)
	}

	// single page, no images, no frames, to stdout
	cmd := exec.CommandContext(ctx, cmdPdfToHTML, "-s", "-i", "-noframes", "-stdout", tmpPDF.Name())
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftohtml failed: %w", err)
	}

	return out, nil
}

// HTML2MD converts HTML content to Markdown, unwrapping layout tables
// first.
func (c Converter) HTML2MD(ctx context.Context, raw []byte) (string, error) {
	cmd := exec.CommandContext(ctx, cmdPandoc, "-f", "html", "-t", "markdown", "--wrap=none")
	cmd.Stdin = bytes.NewReader(UnwrapTableLayout(raw))

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pandoc conversion failed: %w", err)
	}

	return string(out), nil
}
