package toolset

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/format"
)

const (
	mimeGoogleDoc    = "application/vnd.google-apps.document"
	mimeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	mimeGoogleSlides = "application/vnd.google-apps.presentation"
	mimeDocx         = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePDF          = "application/pdf"
	mimeHTML         = "text/html"
)

type DriveSearchRequest struct {
	Query string `json:"query" jsonschema:"file name or content query, empty lists recent files"`
}

type DriveSearchResponse struct {
	Files []DriveFile `json:"files"`
	Total int         `json:"total"`
}

type DriveFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size,omitempty"`
	ModifiedTime string `json:"modified_time,omitempty"`
	WebViewLink  string `json:"web_view_link,omitempty"`
}

type DriveRetrieveRequest struct {
	TargetFile string `json:"target_file,omitempty" jsonschema:"file to search for"`
	FileID     string `json:"file_id,omitempty" jsonschema:"exact file ID, takes precedence"`
}

type DriveRetrieveResponse struct {
	File        DriveFile `json:"file"`
	DownloadURL string    `json:"download_url"`
}

// ReadContentRequest names a file to read. MimeType and Name are optional
// hints that save a metadata lookup.
type ReadContentRequest struct {
	FileID   string `json:"file_id" jsonschema:"the file ID"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

type ReadContentResponse struct {
	FileID   string `json:"file_id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Content  string `json:"content"`
}

type driveSvc interface {
	SearchFiles(ctx context.Context, query string) ([]*drive.File, error)
	GetFile(ctx context.Context, fileID string) (*drive.File, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	Export(ctx context.Context, fileID, mimeType string) ([]byte, error)
}

type docsSvc interface {
	GetDocument(ctx context.Context, documentID string) (*docs.Document, error)
}

type documentConverter interface {
	pdfConverter
	MarkdownSupported() bool
	HTML2MD(ctx context.Context, raw []byte) (string, error)
}

func NewDrive(svc driveSvc, docs docsSvc, cnv documentConverter) *Drive {
	return &Drive{svc: svc, docs: docs, cnv: cnv}
}

// Drive implements the drive provider operations. docs and cnv are
// optional; without them Google Docs are exported as plain text and PDFs
// cannot be read.
type Drive struct {
	svc  driveSvc
	docs docsSvc
	cnv  documentConverter
}

func (t *Drive) Search(ctx context.Context, input DriveSearchRequest) (DriveSearchResponse, error) {
	files, err := t.svc.SearchFiles(ctx, strings.TrimSpace(input.Query))
	if err != nil {
		return DriveSearchResponse{}, fmt.Errorf("svc.SearchFiles failed: %w", err)
	}

	out := make([]DriveFile, 0, len(files))
	for _, f := range files {
		out = append(out, toDriveFile(f))
	}

	return DriveSearchResponse{Files: out, Total: len(out)}, nil
}

// Retrieve resolves a file by id or by the first search hit.
func (t *Drive) Retrieve(ctx context.Context, input DriveRetrieveRequest) (DriveRetrieveResponse, error) {
	id := input.FileID
	if id == "" {
		if strings.TrimSpace(input.TargetFile) == "" {
			return DriveRetrieveResponse{}, apierr.InvalidParams("target_file or file_id is required")
		}

		found, err := t.Search(ctx, DriveSearchRequest{Query: input.TargetFile})
		if err != nil {
			return DriveRetrieveResponse{}, err
		}
		if len(found.Files) == 0 {
			return DriveRetrieveResponse{}, apierr.HTTP(fmt.Sprintf("no files found for query: %s", input.TargetFile), http.StatusNotFound, nil)
		}
		id = found.Files[0].ID
	}

	f, err := t.svc.GetFile(ctx, id)
	if err != nil {
		return DriveRetrieveResponse{}, fmt.Errorf("svc.GetFile failed: %w", err)
	}

	return DriveRetrieveResponse{
		File:        toDriveFile(f),
		DownloadURL: "https://drive.google.com/file/d/" + f.Id + "/view?usp=sharing",
	}, nil
}

// ReadContent returns the text of a file, picking the reader by MIME type
// and name.
func (t *Drive) ReadContent(ctx context.Context, input ReadContentRequest) (ReadContentResponse, error) {
	if input.FileID == "" {
		return ReadContentResponse{}, apierr.InvalidParams("file ID cannot be empty")
	}

	if input.MimeType == "" || input.Name == "" {
		f, err := t.svc.GetFile(ctx, input.FileID)
		if err != nil {
			return ReadContentResponse{}, fmt.Errorf("svc.GetFile failed: %w", err)
		}
		input.Name, input.MimeType = f.Name, f.MimeType
	}

	content, err := t.readContent(ctx, input)
	if err != nil {
		return ReadContentResponse{}, err
	}

	return ReadContentResponse{
		FileID:   input.FileID,
		Name:     input.Name,
		MimeType: input.MimeType,
		Content:  content,
	}, nil
}

func (t *Drive) readContent(ctx context.Context, f ReadContentRequest) (string, error) {
	name := strings.ToLower(f.Name)

	switch {
	case f.MimeType == mimeGoogleDoc && t.docs != nil:
		doc, err := t.docs.GetDocument(ctx, f.FileID)
		if err != nil {
			return "", fmt.Errorf("docs.GetDocument failed: %w", err)
		}
		return format.DocumentText(doc), nil

	case f.MimeType == mimeGoogleDoc, f.MimeType == mimeGoogleSlides:
		return t.export(ctx, f.FileID, "text/plain")

	case f.MimeType == mimeGoogleSheet:
		return t.export(ctx, f.FileID, "text/csv")
	}

	raw, err := t.svc.Download(ctx, f.FileID)
	if err != nil {
		return "", fmt.Errorf("svc.Download failed: %w", err)
	}

	switch {
	case f.MimeType == mimeDocx || strings.HasSuffix(name, ".docx"):
		text, err := format.DocxText(raw)
		if err != nil {
			return "", apierr.InvalidParams("%s is not a readable docx: %v", f.Name, err)
		}
		return text, nil

	case strings.HasSuffix(name, ".ipynb"):
		text, err := format.NotebookText(raw)
		if err != nil {
			return "", apierr.InvalidParams("%s is not a readable notebook: %v", f.Name, err)
		}
		return text, nil

	case f.MimeType == mimePDF || strings.HasSuffix(name, ".pdf"):
		if t.cnv == nil || !t.cnv.PDFSupported() {
			return "", apierr.Config("pdftohtml")
		}
		text, err := t.cnv.PDF2Text(ctx, raw)
		if err != nil {
			return "", fmt.Errorf("cnv.PDF2Text failed: %w", err)
		}
		return text, nil

	case f.MimeType == mimeHTML || strings.HasSuffix(name, ".html"):
		if t.cnv != nil && t.cnv.MarkdownSupported() {
			if md, err := t.cnv.HTML2MD(ctx, raw); err == nil {
				return md, nil
			}
		}
		return format.HTML2Text(raw), nil

	case utf8.Valid(raw):
		return string(raw), nil

	default:
		return "", apierr.InvalidParams("unsupported file type: %s", f.MimeType)
	}
}

func (t *Drive) export(ctx context.Context, id, mimeType string) (string, error) {
	raw, err := t.svc.Export(ctx, id, mimeType)
	if err != nil {
		return "", fmt.Errorf("svc.Export failed: %w", err)
	}
	return string(raw), nil
}

func toDriveFile(f *drive.File) DriveFile {
	return DriveFile{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		Size:         f.Size,
		ModifiedTime: f.ModifiedTime,
		WebViewLink:  f.WebViewLink,
	}
}
