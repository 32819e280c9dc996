// Package toolset binds every provider operation the router can emit to a
// typed handler in a dispatch.Registry.
package toolset

import (
	"time"

	"github.com/hal9000y/mcp-chat/internal/dispatch"
)

// Operation names, as carried by dispatch.Invocation.
const (
	OpGetMessages        = "get_messages"
	OpGetMessageContent  = "get_message_content"
	OpSendMessage        = "send_message"
	OpSummarizeAndSend   = "summarize_and_send"
	OpPreviewAttachments = "preview_attachments"

	OpGetEvents   = "get_events"
	OpCreateEvent = "create_event"
	OpUpdateEvent = "update_event"

	OpSearch      = "search"
	OpRetrieve    = "retrieve"
	OpReadContent = "read_content"

	OpGetPage    = "get_page"
	OpGetContent = "get_content"
	OpGeocode    = "geocode"
	OpChat       = "chat"
)

// Services holds the provider clients to expose. Nil fields are skipped,
// so their operations resolve to not_found.
type Services struct {
	Gmail     gmailSvc
	Calendar  calendarSvc
	Drive     driveSvc
	Docs      docsSvc
	Search    searchSvc
	Slack     slackSvc
	Maps      mapsSvc
	Wikipedia wikipediaSvc
	Web       webSvc
	LLM       llmSvc
	Converter documentConverter
	Now       func() time.Time
}

func Register(reg *dispatch.Registry, s Services) {
	if s.Gmail != nil {
		var cnv pdfConverter
		if s.Converter != nil {
			cnv = s.Converter
		}
		g := NewGmail(s.Gmail, cnv, s.Now)
		dispatch.Add(reg, dispatch.Gmail, OpGetMessages, g.GetMessages, dispatch.ReadOnly())
		dispatch.Add(reg, dispatch.Gmail, OpGetMessageContent, g.GetMessageContent, dispatch.ReadOnly())
		dispatch.Add(reg, dispatch.Gmail, OpPreviewAttachments, g.PreviewAttachments, dispatch.ReadOnly())
		dispatch.Add(reg, dispatch.Gmail, OpSendMessage, g.SendMessage)
		dispatch.Add(reg, dispatch.Gmail, OpSummarizeAndSend, g.SummarizeAndSend)
	}

	if s.Calendar != nil {
		c := NewCalendar(s.Calendar, s.Now)
		dispatch.Add(reg, dispatch.Calendar, OpGetEvents, c.GetEvents, dispatch.ReadOnly())
		dispatch.Add(reg, dispatch.Calendar, OpCreateEvent, c.CreateEvent)
		dispatch.Add(reg, dispatch.Calendar, OpUpdateEvent, c.UpdateEvent)
	}

	if s.Drive != nil {
		d := NewDrive(s.Drive, s.Docs, s.Converter)
		dispatch.Add(reg, dispatch.Drive, OpSearch, d.Search, dispatch.ReadOnly())
		dispatch.Add(reg, dispatch.Drive, OpRetrieve, d.Retrieve, dispatch.ReadOnly())
		dispatch.Add(reg, dispatch.Drive, OpReadContent, d.ReadContent, dispatch.ReadOnly())
	}

	if s.Search != nil {
		dispatch.Add(reg, dispatch.Google, OpSearch, NewSearch(s.Search).Search, dispatch.ReadOnly())
	}
	if s.Wikipedia != nil {
		dispatch.Add(reg, dispatch.Wikipedia, OpGetPage, wikipediaPage(s.Wikipedia), dispatch.ReadOnly())
	}
	if s.Web != nil {
		dispatch.Add(reg, dispatch.WebAccess, OpGetContent, webContent(s.Web), dispatch.ReadOnly())
	}
	if s.Maps != nil {
		dispatch.Add(reg, dispatch.Maps, OpGeocode, geocode(s.Maps), dispatch.ReadOnly())
	}
	if s.Slack != nil {
		dispatch.Add(reg, dispatch.Slack, OpSendMessage, slackMessage(s.Slack))
	}
	if s.LLM != nil {
		dispatch.Add(reg, dispatch.LLM, OpChat, llmChat(s.LLM), dispatch.ReadOnly())
	}
}
