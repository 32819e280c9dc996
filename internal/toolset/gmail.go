package toolset

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/extract"
	"github.com/hal9000y/mcp-chat/internal/format"
)

type GetMessagesRequest struct {
	Query      string `json:"query" jsonschema:"the Gmail search query"`
	MaxResults int64  `json:"max_results,omitempty" jsonschema:"max results per page"`
	PageToken  string `json:"page_token,omitempty" jsonschema:"token for pagination"`
}

type GetMessagesResponse struct {
	Messages      []MessageSummary `json:"messages" jsonschema:"array of message summaries"`
	NextPageToken string           `json:"next_page_token,omitempty" jsonschema:"token for next page"`
	Total         int              `json:"total" jsonschema:"number of messages returned"`
}

type GetMessageContentRequest struct {
	MessageID string `json:"message_id" jsonschema:"the message ID"`
}

// MessageContent is one message reduced to text. Degraded marks the
// metadata-only mode where Body is the subject followed by the snippet.
type MessageContent struct {
	ID          string       `json:"id"`
	Subject     string       `json:"subject"`
	From        string       `json:"from"`
	Body        string       `json:"body"`
	Snippet     string       `json:"snippet"`
	Degraded    bool         `json:"degraded,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Summary     string       `json:"summary,omitempty"`
}

// Attachment represents email attachment metadata.
type Attachment struct {
	ID       string `json:"id" jsonschema:"attachment ID (Part ID)"`
	Filename string `json:"filename" jsonschema:"original filename"`
	MimeType string `json:"mime_type" jsonschema:"MIME type"`
	Size     int64  `json:"size" jsonschema:"size in bytes"`
}

type SendMessageRequest struct {
	To      string `json:"to" jsonschema:"recipient address"`
	Subject string `json:"subject" jsonschema:"message subject"`
	Body    string `json:"body" jsonschema:"plain text body"`
}

type SendMessageResponse struct {
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
}

type SummarizeAndSendRequest struct {
	TargetEmail string `json:"target_email" jsonschema:"where to send the digest"`
	MaxEmails   int64  `json:"max_emails,omitempty" jsonschema:"how many recent messages to include"`
}

type SummarizeAndSendResponse struct {
	EmailsProcessed int    `json:"emails_processed"`
	SummarySentTo   string `json:"summary_sent_to"`
	MessageID       string `json:"message_id"`
	Summary         string `json:"summary"`
}

type listMessagesSvc interface {
	ListMessages(ctx context.Context, q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error)
}

type messageContentSvc interface {
	GetMessage(ctx context.Context, msgID string) (*gmail.Message, error)
	GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error)
}

type sendMessageSvc interface {
	SendMessage(ctx context.Context, rfc822 []byte) (*gmail.Message, error)
}

type gmailSvc interface {
	listMessagesSvc
	messageContentSvc
	sendMessageSvc
	attachmentsSvc
}

func NewGmail(svc gmailSvc, cnv pdfConverter, now func() time.Time) *Gmail {
	if now == nil {
		now = time.Now
	}
	return &Gmail{svc: svc, cnv: cnv, now: now}
}

// Gmail implements the gmail provider operations.
type Gmail struct {
	svc gmailSvc
	cnv pdfConverter
	now func() time.Time
}

// GetMessages lists messages matching the query with their metadata. A
// message whose metadata cannot be fetched is kept with its ids only.
func (t *Gmail) GetMessages(ctx context.Context, input GetMessagesRequest) (GetMessagesResponse, error) {
	input.MaxResults = normalizeMaxResults(input.MaxResults)

	result, err := t.svc.ListMessages(ctx, input.Query, input.PageToken, input.MaxResults)
	if err != nil {
		return GetMessagesResponse{}, fmt.Errorf("svc.ListMessages failed: %w", err)
	}

	messages := make([]MessageSummary, 0, len(result.Messages))

	for _, m := range result.Messages {
		msg, err := t.svc.GetMessageMetadata(ctx, m.Id)
		if err != nil {
			if ctx.Err() != nil {
				return GetMessagesResponse{}, fmt.Errorf("get message %s failed: %w", m.Id, err)
			}
			log.Warn().Str("message_id", m.Id).Err(err).Msg("metadata unavailable")
			messages = append(messages, MessageSummary{ID: m.Id, ThreadID: m.ThreadId})
			continue
		}

		messages = append(messages, summarize(msg))
	}

	return GetMessagesResponse{
		Messages:      messages,
		NextPageToken: result.NextPageToken,
		Total:         len(messages),
	}, nil
}

func normalizeMaxResults(maxResults int64) int64 {
	if maxResults <= 0 {
		return 10
	}
	if maxResults > 50 {
		return 50
	}
	return maxResults
}

// GetMessageContent fetches the full message. When the token's scopes
// deny full access the metadata is used instead and the result is marked
// degraded.
func (t *Gmail) GetMessageContent(ctx context.Context, input GetMessageContentRequest) (MessageContent, error) {
	id := strings.TrimSpace(input.MessageID)
	if id == "" {
		return MessageContent{}, apierr.InvalidParams("message ID cannot be empty")
	}

	msg, err := t.svc.GetMessage(ctx, id)
	if isForbidden(err) {
		return t.degradedContent(ctx, id)
	}
	if err != nil {
		return MessageContent{}, fmt.Errorf("svc.GetMessage failed: %w", err)
	}

	summary := summarize(msg)
	content := MessageContent{
		ID:      id,
		Subject: summary.Subject,
		From:    summary.From.String(),
		Snippet: msg.Snippet,
	}

	if msg.Payload != nil {
		content.Attachments = extractAttachments(msg.Payload)

		textBody, htmlBody := extractMessageBodies(msg.Payload)
		content.Body = textBody
		if content.Body == "" && htmlBody != "" {
			content.Body = format.HTML2Text(format.UnwrapTableLayout([]byte(htmlBody)))
		}
	}

	return content, nil
}

func (t *Gmail) degradedContent(ctx context.Context, id string) (MessageContent, error) {
	msg, err := t.svc.GetMessageMetadata(ctx, id)
	if err != nil {
		return MessageContent{}, fmt.Errorf("svc.GetMessageMetadata failed: %w", err)
	}

	summary := summarize(msg)

	return MessageContent{
		ID:       id,
		Subject:  summary.Subject,
		From:     summary.From.String(),
		Body:     strings.TrimSpace(summary.Subject + " " + msg.Snippet),
		Snippet:  msg.Snippet,
		Degraded: true,
	}, nil
}

func isForbidden(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusForbidden
}

// SendMessage sends a plain text message to a single recipient.
func (t *Gmail) SendMessage(ctx context.Context, input SendMessageRequest) (SendMessageResponse, error) {
	raw, err := buildMessage(input.To, input.Subject, input.Body)
	if err != nil {
		return SendMessageResponse{}, err
	}

	sent, err := t.svc.SendMessage(ctx, raw)
	if err != nil {
		return SendMessageResponse{}, fmt.Errorf("svc.SendMessage failed: %w", err)
	}

	return SendMessageResponse{MessageID: sent.Id, ThreadID: sent.ThreadId}, nil
}

func buildMessage(to, subject, body string) ([]byte, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, apierr.InvalidParams("recipient address is required")
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return nil, apierr.InvalidParams("invalid recipient %q: %v", to, err)
	}

	subject = strings.Join(strings.Fields(subject), " ")

	var b bytes.Buffer
	fmt.Fprintf(&b, "To: %s\r\n", addr.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))

	return b.Bytes(), nil
}

// SummarizeAndSend mails a digest of the most recent messages to the
// target address. Messages whose content cannot be read are skipped.
func (t *Gmail) SummarizeAndSend(ctx context.Context, input SummarizeAndSendRequest) (SummarizeAndSendResponse, error) {
	if input.MaxEmails <= 0 {
		input.MaxEmails = 10
	}

	list, err := t.svc.ListMessages(ctx, "", "", input.MaxEmails)
	if err != nil {
		return SummarizeAndSendResponse{}, fmt.Errorf("svc.ListMessages failed: %w", err)
	}
	if len(list.Messages) == 0 {
		return SummarizeAndSendResponse{}, apierr.HTTP("no emails found", http.StatusNotFound, nil)
	}

	contents := make([]MessageContent, 0, len(list.Messages))
	for _, m := range list.Messages {
		c, err := t.GetMessageContent(ctx, GetMessageContentRequest{MessageID: m.Id})
		if err != nil {
			log.Warn().Str("message_id", m.Id).Err(err).Msg("skipping message in digest")
			continue
		}
		contents = append(contents, c)
	}

	summary := Digest(contents, t.now())
	subject := fmt.Sprintf("Email Summary - %d Recent Messages", len(contents))

	sent, err := t.SendMessage(ctx, SendMessageRequest{To: input.TargetEmail, Subject: subject, Body: summary})
	if err != nil {
		return SummarizeAndSendResponse{}, err
	}

	return SummarizeAndSendResponse{
		EmailsProcessed: len(contents),
		SummarySentTo:   input.TargetEmail,
		MessageID:       sent.MessageID,
		Summary:         summary,
	}, nil
}

const digestRule = "=================================================="

// Digest renders messages as the plain text summary mailed by
// SummarizeAndSend.
func Digest(contents []MessageContent, at time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "EMAIL SUMMARY - %d RECENT MESSAGES\n%s\n\n", len(contents), digestRule)

	for i, c := range contents {
		subject := c.Subject
		if subject == "" {
			subject = "No Subject"
		}
		from := c.From
		if from == "" {
			from = "Unknown Sender"
		}

		fmt.Fprintf(&b, "%d. SUBJECT: %s\n   FROM: %s\n\n", i+1, subject, from)

		switch h := extract.Highlights(c.Body); {
		case c.Body != "" && h != "":
			fmt.Fprintf(&b, "   HIGHLIGHTS: %s\n\n", h)
		case c.Body != "":
			fmt.Fprintf(&b, "   CONTENT: %s...\n\n", truncate(c.Snippet, 200))
		default:
			fmt.Fprintf(&b, "   SNIPPET: %s...\n\n", truncate(c.Snippet, 200))
		}
	}

	fmt.Fprintf(&b, "%s\nTotal emails processed: %d\nSummary generated at: %s\n",
		digestRule, len(contents), at.Format(time.RFC3339))

	return b.String()
}

func extractMessageBodies(payload *gmail.MessagePart) (textBody, htmlBody string) {
	textBody, htmlBody = extractBodyFromPart(payload)

	for _, part := range payload.Parts {
		if textBody != "" && htmlBody != "" {
			break
		}

		partText, partHTML := extractMessageBodies(part)
		if textBody == "" {
			textBody = partText
		}
		if htmlBody == "" {
			htmlBody = partHTML
		}
	}

	return textBody, htmlBody
}

func extractBodyFromPart(part *gmail.MessagePart) (textBody, htmlBody string) {
	if part.Body == nil || part.Body.Data == "" || part.Filename != "" {
		return "", ""
	}

	switch part.MimeType {
	case "text/plain":
		return decodeBase64URL(part.Body.Data), ""
	case "text/html":
		return "", decodeBase64URL(part.Body.Data)
	default:
		return "", ""
	}
}

func decodeBase64URL(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return data
		}
	}
	return string(decoded)
}

func extractAttachments(payload *gmail.MessagePart) []Attachment {
	var attachments []Attachment

	if payload.Body != nil && payload.Body.AttachmentId != "" {
		attachments = append(attachments, Attachment{
			ID:       payload.PartId,
			Filename: payload.Filename,
			MimeType: payload.MimeType,
			Size:     payload.Body.Size,
		})
	}

	for _, part := range payload.Parts {
		attachments = append(attachments, extractAttachments(part)...)
	}

	return attachments
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
