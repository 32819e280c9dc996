package tool

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/extract"
	"github.com/hal9000y/mcp-chat/internal/safety"
)

type ExtractEntitiesRequest struct {
	Text string `json:"text" jsonschema:"text to analyze"`
	Now  string `json:"now,omitempty" jsonschema:"RFC 3339 reference time for words like tomorrow, defaults to the server clock"`
}

type ExtractEntitiesResponse struct {
	URLs         []string               `json:"urls" jsonschema:"safe URLs, deduplicated"`
	Candidates   []extract.ExtractedURL `json:"candidates" jsonschema:"every URL found with its safety verdict"`
	Images       []string               `json:"images" jsonschema:"safe image URLs"`
	Date         string                 `json:"date,omitempty" jsonschema:"first date found, YYYY-MM-DD"`
	Time         string                 `json:"time,omitempty" jsonschema:"first clock time found, HH:MM"`
	Email        string                 `json:"email,omitempty" jsonschema:"first email address found"`
	Instructions []extract.Instruction  `json:"instructions" jsonschema:"actionable phrases by category"`
	Highlights   string                 `json:"highlights,omitempty" jsonschema:"short summary of the text"`
}

type SanitizeTextRequest struct {
	Text     string `json:"text" jsonschema:"text to clean"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema:"truncate to this many characters, default 8000"`
}

type SanitizeTextResponse struct {
	Text string `json:"text"`
}

func NewEntities(now func() time.Time) *Entities {
	if now == nil {
		now = time.Now
	}
	return &Entities{now: now}
}

type Entities struct {
	now func() time.Time
}

func (t *Entities) ExtractEntities(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ExtractEntitiesRequest,
) (*mcp.CallToolResult, ExtractEntitiesResponse, error) {
	now := t.now()
	if input.Now != "" {
		parsed, err := time.Parse(time.RFC3339, input.Now)
		if err != nil {
			return nil, ExtractEntitiesResponse{}, apierr.InvalidParams("invalid now %q: %v", input.Now, err)
		}
		now = parsed
	}

	out := ExtractEntitiesResponse{
		URLs:         extract.URLs(input.Text),
		Candidates:   extract.FindURLs(input.Text),
		Images:       extract.ImageURLs(input.Text),
		Instructions: extract.Instructions(input.Text),
		Highlights:   extract.Highlights(input.Text),
	}
	out.Date, _ = extract.Date(input.Text, now)
	out.Time, _ = extract.Time(input.Text)
	out.Email, _ = extract.Email(input.Text)

	if out.Candidates == nil {
		out.Candidates = []extract.ExtractedURL{}
	}
	if out.Instructions == nil {
		out.Instructions = []extract.Instruction{}
	}

	return nil, out, nil
}

func SanitizeText(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SanitizeTextRequest,
) (*mcp.CallToolResult, SanitizeTextResponse, error) {
	if input.MaxChars > 0 {
		return nil, SanitizeTextResponse{Text: safety.SanitizeN(input.Text, input.MaxChars)}, nil
	}
	return nil, SanitizeTextResponse{Text: safety.Sanitize(input.Text)}, nil
}
