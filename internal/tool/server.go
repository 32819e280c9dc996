// Package tool exposes the chat pipeline, the router and the text
// extractors as MCP tools.
package tool

import (
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "mcp-chat"
	serverVersion = "v1.0.0"
)

// NewServer creates an MCP server with the chat tools. now is the
// reference time for relative dates in extract_entities.
func NewServer(pipeline chatSvc, invoker invokeSvc, now func() time.Time) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	chat := NewChat(pipeline)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "chat",
		Description: "Route a natural-language request to Gmail, Calendar, Drive, search, Slack, Maps, Wikipedia or the web, and follow up on URLs, events and document instructions found in the results",
	}, chat.Chat)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "route_message",
		Description: "Show which provider calls a message would trigger without running them",
	}, chat.RouteMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_entities",
		Description: "Extract URLs, image URLs, a date, a time, an email address and instructions from text",
	}, NewEntities(now).ExtractEntities)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sanitize_text",
		Description: "Strip markup, redact credentials and collapse whitespace",
	}, SanitizeText)

	if invoker != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "invoke",
			Description: "Call one provider operation directly, e.g. provider \"drive\" and operation \"search\"",
		}, NewInvoke(invoker).Invoke)
	}

	return server
}
