package toolset_test

import (
	"context"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
)

type gmailSvcMock struct {
	ListMessagesFunc       func(ctx context.Context, q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageMetadataFunc func(ctx context.Context, msgID string) (*gmail.Message, error)
	GetMessageFunc         func(ctx context.Context, msgID string) (*gmail.Message, error)
	GetAttachmentFunc      func(ctx context.Context, msgID, attachmentID string) (*gmail.MessagePartBody, error)
	SendMessageFunc        func(ctx context.Context, rfc822 []byte) (*gmail.Message, error)
}

func (m *gmailSvcMock) ListMessages(ctx context.Context, q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	return m.ListMessagesFunc(ctx, q, pageToken, maxResults)
}

func (m *gmailSvcMock) GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error) {
	return m.GetMessageMetadataFunc(ctx, msgID)
}

func (m *gmailSvcMock) GetMessage(ctx context.Context, msgID string) (*gmail.Message, error) {
	return m.GetMessageFunc(ctx, msgID)
}

func (m *gmailSvcMock) GetAttachment(ctx context.Context, msgID, attachmentID string) (*gmail.MessagePartBody, error) {
	return m.GetAttachmentFunc(ctx, msgID, attachmentID)
}

func (m *gmailSvcMock) SendMessage(ctx context.Context, rfc822 []byte) (*gmail.Message, error) {
	return m.SendMessageFunc(ctx, rfc822)
}

type calendarSvcMock struct {
	ListEventsFunc  func(ctx context.Context, timeMin, timeMax time.Time, maxResults int64) (*calendar.Events, error)
	InsertEventFunc func(ctx context.Context, ev *calendar.Event) (*calendar.Event, error)
	PatchEventFunc  func(ctx context.Context, eventID string, ev *calendar.Event) (*calendar.Event, error)
}

func (m *calendarSvcMock) ListEvents(ctx context.Context, timeMin, timeMax time.Time, maxResults int64) (*calendar.Events, error) {
	return m.ListEventsFunc(ctx, timeMin, timeMax, maxResults)
}

func (m *calendarSvcMock) InsertEvent(ctx context.Context, ev *calendar.Event) (*calendar.Event, error) {
	return m.InsertEventFunc(ctx, ev)
}

func (m *calendarSvcMock) PatchEvent(ctx context.Context, eventID string, ev *calendar.Event) (*calendar.Event, error) {
	return m.PatchEventFunc(ctx, eventID, ev)
}

type driveSvcMock struct {
	SearchFilesFunc func(ctx context.Context, query string) ([]*drive.File, error)
	GetFileFunc     func(ctx context.Context, fileID string) (*drive.File, error)
	DownloadFunc    func(ctx context.Context, fileID string) ([]byte, error)
	ExportFunc      func(ctx context.Context, fileID, mimeType string) ([]byte, error)
}

func (m *driveSvcMock) SearchFiles(ctx context.Context, query string) ([]*drive.File, error) {
	return m.SearchFilesFunc(ctx, query)
}

func (m *driveSvcMock) GetFile(ctx context.Context, fileID string) (*drive.File, error) {
	return m.GetFileFunc(ctx, fileID)
}

func (m *driveSvcMock) Download(ctx context.Context, fileID string) ([]byte, error) {
	return m.DownloadFunc(ctx, fileID)
}

func (m *driveSvcMock) Export(ctx context.Context, fileID, mimeType string) ([]byte, error) {
	return m.ExportFunc(ctx, fileID, mimeType)
}

type docsSvcMock struct {
	GetDocumentFunc func(ctx context.Context, documentID string) (*docs.Document, error)
}

func (m *docsSvcMock) GetDocument(ctx context.Context, documentID string) (*docs.Document, error) {
	return m.GetDocumentFunc(ctx, documentID)
}

type searchSvcMock struct {
	SearchFunc func(ctx context.Context, q string, num int64) (*customsearch.Search, error)
}

func (m *searchSvcMock) Search(ctx context.Context, q string, num int64) (*customsearch.Search, error) {
	return m.SearchFunc(ctx, q, num)
}

type converterMock struct {
	PDF bool
	MD  bool
}

func (c converterMock) PDFSupported() bool      { return c.PDF }
func (c converterMock) MarkdownSupported() bool { return c.MD }

func (c converterMock) PDF2Text(_ context.Context, raw []byte) (string, error) {
	return "pdf:" + string(raw), nil
}

func (c converterMock) HTML2MD(_ context.Context, raw []byte) (string, error) {
	return "md:" + string(raw), nil
}
