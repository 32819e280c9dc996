package toolset_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/toolset"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func metadataMessage(msgID string) *gmail.Message {
	return &gmail.Message{
		Id:       msgID,
		ThreadId: "t-" + msgID,
		Snippet:  "snippet " + msgID,
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: fmt.Sprintf("Sender <%s@example.com>", msgID)},
				{Name: "To", Value: "Me <me@example.com>, other@example.com"},
				{Name: "Subject", Value: "Subject " + msgID},
				{Name: "Date", Value: "2025-01-01 10:00:00"},
			},
		},
	}
}

func fullMessage(msgID string, parts ...*gmail.MessagePart) *gmail.Message {
	msg := metadataMessage(msgID)
	msg.Payload.MimeType = "multipart/alternative"
	msg.Payload.Parts = parts
	return msg
}

func TestGetMessages(t *testing.T) {
	svc := &gmailSvcMock{
		ListMessagesFunc: func(_ context.Context, q, _ string, maxResults int64) (*gmail.ListMessagesResponse, error) {
			assert.Equal(t, "from:boss", q)
			assert.Equal(t, int64(10), maxResults)
			return &gmail.ListMessagesResponse{
				Messages:      []*gmail.Message{{Id: "m-1", ThreadId: "t-m-1"}, {Id: "m-2", ThreadId: "t-m-2"}},
				NextPageToken: "next",
			}, nil
		},
		GetMessageMetadataFunc: func(_ context.Context, msgID string) (*gmail.Message, error) {
			if msgID == "m-2" {
				return nil, errors.New("boom")
			}
			return metadataMessage(msgID), nil
		},
	}

	res, err := toolset.NewGmail(svc, nil, nil).GetMessages(context.Background(), toolset.GetMessagesRequest{Query: "from:boss"})
	require.NoError(t, err)

	assert.Equal(t, toolset.GetMessagesResponse{
		Messages: []toolset.MessageSummary{
			{
				ID:        "m-1",
				ThreadID:  "t-m-1",
				Timestamp: "2025-01-01 10:00:00",
				From:      toolset.EmailAddress{Name: "Sender", Email: "m-1@example.com"},
				To: []toolset.EmailAddress{
					{Name: "Me", Email: "me@example.com"},
					{Email: "other@example.com"},
				},
				Subject: "Subject m-1",
				Snippet: "snippet m-1",
			},
			{ID: "m-2", ThreadID: "t-m-2"},
		},
		NextPageToken: "next",
		Total:         2,
	}, res)
}

func TestGetMessageContent(t *testing.T) {
	forbidden := &googleapi.Error{Code: http.StatusForbidden, Message: "Metadata scope does not allow format FULL"}

	cases := []struct {
		name        string
		msgID       string
		expected    toolset.MessageContent
		expectedErr apierr.Kind
	}{
		{
			name:  "plain text preferred",
			msgID: "plain",
			expected: toolset.MessageContent{
				ID: "plain", Subject: "Subject plain", From: "Sender <plain@example.com>",
				Body: "plain body", Snippet: "snippet plain",
			},
		},
		{
			name:  "html converted when no plain part",
			msgID: "html",
			expected: toolset.MessageContent{
				ID: "html", Subject: "Subject html", From: "Sender <html@example.com>",
				Body: "Hello\n\nworld", Snippet: "snippet html",
			},
		},
		{
			name:  "forbidden falls back to metadata",
			msgID: "denied",
			expected: toolset.MessageContent{
				ID: "denied", Subject: "Subject denied", From: "Sender <denied@example.com>",
				Body: "Subject denied snippet denied", Snippet: "snippet denied", Degraded: true,
			},
		},
		{
			name:        "empty id",
			msgID:       " ",
			expectedErr: apierr.KindInvalidParams,
		},
		{
			name:        "other errors propagate",
			msgID:       "broken",
			expectedErr: apierr.KindUpstream,
		},
	}

	svc := &gmailSvcMock{
		GetMessageFunc: func(_ context.Context, msgID string) (*gmail.Message, error) {
			switch msgID {
			case "plain":
				return fullMessage(msgID,
					&gmail.MessagePart{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("plain body")}},
					&gmail.MessagePart{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<b>html</b>")}},
				), nil
			case "html":
				return fullMessage(msgID,
					&gmail.MessagePart{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<p>Hello</p><p>world</p>")}},
				), nil
			case "denied":
				return nil, fmt.Errorf("messages.Get failed: %w", forbidden)
			default:
				return nil, &googleapi.Error{Code: http.StatusBadRequest}
			}
		},
		GetMessageMetadataFunc: func(_ context.Context, msgID string) (*gmail.Message, error) {
			return metadataMessage(msgID), nil
		},
	}
	g := toolset.NewGmail(svc, nil, nil)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := g.GetMessageContent(context.Background(), toolset.GetMessageContentRequest{MessageID: tc.msgID})
			if tc.expectedErr != apierr.KindNone {
				require.Error(t, err)
				assert.Equal(t, tc.expectedErr, apierr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res)
		})
	}
}

func TestSendMessage(t *testing.T) {
	cases := []struct {
		name        string
		req         toolset.SendMessageRequest
		expectedErr apierr.Kind
		contains    []string
	}{
		{
			name:        "missing recipient",
			req:         toolset.SendMessageRequest{Subject: "hi", Body: "x"},
			expectedErr: apierr.KindInvalidParams,
		},
		{
			name:        "invalid recipient",
			req:         toolset.SendMessageRequest{To: "not an address", Body: "x"},
			expectedErr: apierr.KindInvalidParams,
		},
		{
			name: "plain message",
			req:  toolset.SendMessageRequest{To: "bob@example.com", Subject: "Hello\r\nBcc: evil@example.com", Body: "line one\nline two"},
			contains: []string{
				"To: <bob@example.com>\r\n",
				"Subject: Hello Bcc: evil@example.com\r\n",
				"Content-Type: text/plain; charset=\"UTF-8\"\r\n",
				"\r\n\r\nline one\r\nline two",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var sent []byte
			svc := &gmailSvcMock{
				SendMessageFunc: func(_ context.Context, rfc822 []byte) (*gmail.Message, error) {
					sent = rfc822
					return &gmail.Message{Id: "sent-1", ThreadId: "thread-1"}, nil
				},
			}

			res, err := toolset.NewGmail(svc, nil, nil).SendMessage(context.Background(), tc.req)
			if tc.expectedErr != apierr.KindNone {
				require.Error(t, err)
				assert.Equal(t, tc.expectedErr, apierr.KindOf(err))
				assert.Nil(t, sent)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, toolset.SendMessageResponse{MessageID: "sent-1", ThreadID: "thread-1"}, res)
			for _, s := range tc.contains {
				assert.Contains(t, string(sent), s)
			}
		})
	}
}

func TestSummarizeAndSend(t *testing.T) {
	var sent string
	svc := &gmailSvcMock{
		ListMessagesFunc: func(_ context.Context, _, _ string, maxResults int64) (*gmail.ListMessagesResponse, error) {
			assert.Equal(t, int64(2), maxResults)
			return &gmail.ListMessagesResponse{Messages: []*gmail.Message{{Id: "a"}, {Id: "b"}}}, nil
		},
		GetMessageFunc: func(_ context.Context, msgID string) (*gmail.Message, error) {
			if msgID == "b" {
				return nil, &googleapi.Error{Code: http.StatusNotFound}
			}
			return fullMessage(msgID, &gmail.MessagePart{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: b64("Please review the quarterly budget before Friday.")},
			}), nil
		},
		SendMessageFunc: func(_ context.Context, rfc822 []byte) (*gmail.Message, error) {
			sent = string(rfc822)
			return &gmail.Message{Id: "digest-1"}, nil
		},
	}

	res, err := toolset.NewGmail(svc, nil, func() time.Time { return fixedNow }).
		SummarizeAndSend(context.Background(), toolset.SummarizeAndSendRequest{TargetEmail: "me@example.com", MaxEmails: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, res.EmailsProcessed)
	assert.Equal(t, "me@example.com", res.SummarySentTo)
	assert.Equal(t, "digest-1", res.MessageID)
	assert.Contains(t, res.Summary, "EMAIL SUMMARY - 1 RECENT MESSAGES")
	assert.Contains(t, res.Summary, "1. SUBJECT: Subject a")
	assert.Contains(t, res.Summary, "HIGHLIGHTS: ")
	assert.Contains(t, sent, "Subject: Email Summary - 1 Recent Messages\r\n")
}

func TestSummarizeAndSendNoEmails(t *testing.T) {
	svc := &gmailSvcMock{
		ListMessagesFunc: func(context.Context, string, string, int64) (*gmail.ListMessagesResponse, error) {
			return &gmail.ListMessagesResponse{}, nil
		},
	}

	_, err := toolset.NewGmail(svc, nil, nil).SummarizeAndSend(context.Background(), toolset.SummarizeAndSendRequest{TargetEmail: "me@example.com"})
	require.Error(t, err)
	assert.Equal(t, apierr.KindUpstream, apierr.KindOf(err))
	assert.Contains(t, err.Error(), "no emails found")
}

func TestDigest(t *testing.T) {
	digest := toolset.Digest([]toolset.MessageContent{
		{Subject: "Launch", From: "a@example.com", Body: "Please confirm the launch checklist today."},
		{Snippet: strings.Repeat("x", 250)},
	}, fixedNow)

	lines := strings.Split(digest, "\n")
	assert.Equal(t, "EMAIL SUMMARY - 2 RECENT MESSAGES", lines[0])
	assert.Contains(t, digest, "1. SUBJECT: Launch\n   FROM: a@example.com")
	assert.Contains(t, digest, "2. SUBJECT: No Subject\n   FROM: Unknown Sender")
	assert.Contains(t, digest, "   SNIPPET: "+strings.Repeat("x", 200)+"...\n")
	assert.Contains(t, digest, "Total emails processed: 2")
	assert.Contains(t, digest, "Summary generated at: 2025-03-10T09:00:00Z")
}

func TestPreviewAttachments(t *testing.T) {
	svc := &gmailSvcMock{
		GetMessageFunc: func(_ context.Context, msgID string) (*gmail.Message, error) {
			return &gmail.Message{
				Id: msgID,
				Payload: &gmail.MessagePart{
					PartId: "",
					Parts: []*gmail.MessagePart{
						{PartId: "0", MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("body")}},
						{PartId: "1", Filename: "notes.txt", MimeType: "text/plain", Body: &gmail.MessagePartBody{AttachmentId: "att-1", Size: 5}},
						{PartId: "2", Filename: "report.pdf", MimeType: "application/pdf", Body: &gmail.MessagePartBody{AttachmentId: "att-2"}},
						{PartId: "3", Filename: "image.bin", MimeType: "application/octet-stream", Body: &gmail.MessagePartBody{AttachmentId: "att-3"}},
					},
				},
			}, nil
		},
		GetAttachmentFunc: func(_ context.Context, _, attachmentID string) (*gmail.MessagePartBody, error) {
			return &gmail.MessagePartBody{Data: b64("data of " + attachmentID)}, nil
		},
	}

	cases := []struct {
		name     string
		cnv      converterMock
		ids      []string
		expected []toolset.AttachmentPreview
	}{
		{
			name: "selected attachments",
			cnv:  converterMock{PDF: true},
			ids:  []string{"1", "2", "9"},
			expected: []toolset.AttachmentPreview{
				{ID: "1", Filename: "notes.txt", MimeType: "text/plain", Content: "data of att-1"},
				{ID: "2", Filename: "report.pdf", MimeType: "application/pdf", Content: "pdf:data of att-2"},
				{ID: "9", Error: "no attachment found for m-1/9"},
			},
		},
		{
			name: "all attachments without pdf support",
			expected: []toolset.AttachmentPreview{
				{ID: "1", Filename: "notes.txt", MimeType: "text/plain", Content: "data of att-1"},
				{ID: "2", Filename: "report.pdf", MimeType: "application/pdf", Error: "pdf conversion unavailable"},
				{ID: "3", Filename: "image.bin", MimeType: "application/octet-stream", Error: "unsupported file type: application/octet-stream"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := toolset.NewGmail(svc, tc.cnv, nil)
			res, err := g.PreviewAttachments(context.Background(), toolset.PreviewAttachmentsRequest{MessageID: "m-1", AttachmentIDs: tc.ids})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res.Attachments)
		})
	}
}
