package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/chain"
	"github.com/hal9000y/mcp-chat/internal/dispatch"
	"github.com/hal9000y/mcp-chat/internal/router"
)

// ChatRequest mirrors chain.Request. Unset options take the pipeline
// defaults.
type ChatRequest struct {
	Message            string `json:"message" jsonschema:"the request in plain language"`
	MaxURLs            *int   `json:"max_urls,omitempty" jsonschema:"cap on URLs fetched from results, default 3"`
	MaxImages          *int   `json:"max_images,omitempty" jsonschema:"cap on image URLs analyzed, default 3"`
	EnableToolChaining *bool  `json:"enable_tool_chaining,omitempty" jsonschema:"run follow-up calls on results, default true"`
	ProcessImages      *bool  `json:"process_images,omitempty" jsonschema:"analyze image URLs separately, default true"`
	EnableSummary      *bool  `json:"enable_summary,omitempty" jsonschema:"summarize email bodies with the LLM, default false"`
}

func (r ChatRequest) request() chain.Request {
	req := chain.NewRequest(r.Message)
	if r.MaxURLs != nil {
		req.MaxURLs = *r.MaxURLs
	}
	if r.MaxImages != nil {
		req.MaxImages = *r.MaxImages
	}
	if r.EnableToolChaining != nil {
		req.EnableToolChaining = *r.EnableToolChaining
	}
	if r.ProcessImages != nil {
		req.ProcessImages = *r.ProcessImages
	}
	if r.EnableSummary != nil {
		req.EnableSummary = *r.EnableSummary
	}
	return req
}

type RouteMessageRequest struct {
	Message string `json:"message" jsonschema:"the request in plain language"`
}

type chatSvc interface {
	Chat(ctx context.Context, req chain.Request) chain.Response
	Plan(message string) router.Plan
}

func NewChat(svc chatSvc) *Chat {
	return &Chat{svc: svc}
}

type Chat struct {
	svc chatSvc
}

func (t *Chat) Chat(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChatRequest,
) (*mcp.CallToolResult, chain.Response, error) {
	if input.Message == "" {
		return nil, chain.Response{}, apierr.InvalidParams("message cannot be empty")
	}

	return nil, t.svc.Chat(ctx, input.request()), nil
}

func (t *Chat) RouteMessage(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input RouteMessageRequest,
) (*mcp.CallToolResult, router.Plan, error) {
	if input.Message == "" {
		return nil, router.Plan{}, apierr.InvalidParams("message cannot be empty")
	}

	plan := t.svc.Plan(input.Message)
	if plan.Invocations == nil {
		plan.Invocations = []dispatch.Invocation{}
	}

	return nil, plan, nil
}
