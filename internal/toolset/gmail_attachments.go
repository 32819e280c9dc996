package toolset

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/mcp-chat/internal/format"
)

// PreviewAttachmentsRequest specifies attachments to preview.
type PreviewAttachmentsRequest struct {
	MessageID     string   `json:"message_id" jsonschema:"message ID containing attachments"`
	AttachmentIDs []string `json:"attachment_ids" jsonschema:"array of attachment IDs (Part IDs)"`
}

// PreviewAttachmentsResponse contains extracted attachment content.
type PreviewAttachmentsResponse struct {
	Attachments []AttachmentPreview `json:"attachments" jsonschema:"array of attachment previews"`
}

// AttachmentPreview contains extracted text from an attachment.
type AttachmentPreview struct {
	ID       string `json:"id" jsonschema:"attachment ID (Part ID)"`
	Filename string `json:"filename,omitempty" jsonschema:"original filename"`
	MimeType string `json:"mime_type,omitempty" jsonschema:"MIME type"`
	Content  string `json:"content,omitempty" jsonschema:"extracted text content"`
	Error    string `json:"error,omitempty" jsonschema:"error if extraction failed"`
}

type attachmentsSvc interface {
	GetMessage(ctx context.Context, msgID string) (*gmail.Message, error)
	GetAttachment(ctx context.Context, msgID, attachmentID string) (*gmail.MessagePartBody, error)
}

type pdfConverter interface {
	PDFSupported() bool
	PDF2Text(ctx context.Context, raw []byte) (string, error)
}

// PreviewAttachments extracts text from the given attachments of one
// message. An empty id list previews every attachment. Failures are
// reported per attachment.
func (t *Gmail) PreviewAttachments(ctx context.Context, input PreviewAttachmentsRequest) (PreviewAttachmentsResponse, error) {
	msg, err := t.svc.GetMessage(ctx, input.MessageID)
	if err != nil {
		return PreviewAttachmentsResponse{}, fmt.Errorf("svc.GetMessage failed: %w", err)
	}
	if msg.Payload == nil {
		return PreviewAttachmentsResponse{Attachments: []AttachmentPreview{}}, nil
	}

	ids := input.AttachmentIDs
	if len(ids) == 0 {
		for _, a := range extractAttachments(msg.Payload) {
			ids = append(ids, a.ID)
		}
	}

	previews := make([]AttachmentPreview, 0, len(ids))

	for _, partID := range ids {
		preview := AttachmentPreview{ID: partID}

		part := findPart(msg.Payload, partID)
		if part == nil || part.Body == nil || part.Body.AttachmentId == "" {
			preview.Error = fmt.Sprintf("no attachment found for %s/%s", input.MessageID, partID)
			previews = append(previews, preview)
			continue
		}
		preview.Filename = part.Filename
		preview.MimeType = part.MimeType

		body, err := t.svc.GetAttachment(ctx, input.MessageID, part.Body.AttachmentId)
		if err != nil {
			preview.Error = fmt.Sprintf("get attachment failed: %v", err)
			previews = append(previews, preview)
			continue
		}

		if text, err := t.attachmentText(ctx, body.Data, part.MimeType, part.Filename); err != nil {
			preview.Error = err.Error()
		} else {
			preview.Content = text
		}

		previews = append(previews, preview)
	}

	return PreviewAttachmentsResponse{Attachments: previews}, nil
}

func findPart(payload *gmail.MessagePart, partID string) *gmail.MessagePart {
	if payload.PartId == partID {
		return payload
	}

	for _, part := range payload.Parts {
		if found := findPart(part, partID); found != nil {
			return found
		}
	}

	return nil
}

func (t *Gmail) attachmentText(ctx context.Context, data, mimeType, filename string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return "", fmt.Errorf("failed to decode attachment: %w", err)
		}
	}

	name := strings.ToLower(filename)

	switch {
	case mimeType == "text/html":
		return format.HTML2Text(decoded), nil
	case strings.HasPrefix(mimeType, "text/"),
		strings.HasSuffix(name, ".txt"), strings.HasSuffix(name, ".md"), strings.HasSuffix(name, ".csv"):
		return string(decoded), nil
	case mimeType == mimeDocx || strings.HasSuffix(name, ".docx"):
		return format.DocxText(decoded)
	case mimeType == "application/pdf":
		if t.cnv == nil || !t.cnv.PDFSupported() {
			return "", fmt.Errorf("pdf conversion unavailable")
		}
		return t.cnv.PDF2Text(ctx, decoded)
	default:
		return "", fmt.Errorf("unsupported file type: %s", mimeType)
	}
}
