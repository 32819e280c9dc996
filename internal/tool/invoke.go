package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/dispatch"
)

type InvokeRequest struct {
	Provider   string         `json:"provider" jsonschema:"gmail, calendar, drive, google, slack, maps, wikipedia, web_access or llm"`
	Operation  string         `json:"operation" jsonschema:"operation name, e.g. get_events"`
	Parameters map[string]any `json:"parameters,omitempty" jsonschema:"operation parameters"`
}

type invokeSvc interface {
	Dispatch(ctx context.Context, inv dispatch.Invocation) dispatch.Result
}

func NewInvoke(svc invokeSvc) *Invoke {
	return &Invoke{svc: svc}
}

type Invoke struct {
	svc invokeSvc
}

// Invoke runs a single invocation. A failed call is returned as a tool
// error carrying its kind.
func (t *Invoke) Invoke(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input InvokeRequest,
) (*mcp.CallToolResult, dispatch.Result, error) {
	if input.Provider == "" || input.Operation == "" {
		return nil, dispatch.Result{}, apierr.InvalidParams("provider and operation are required")
	}

	res := t.svc.Dispatch(ctx, dispatch.Invocation{
		Provider:  dispatch.Provider(input.Provider),
		Operation: input.Operation,
		Params:    input.Parameters,
	})
	if !res.Success {
		return nil, dispatch.Result{}, fmt.Errorf("%s failed (%s): %s", res.Invocation.Name(), res.Kind, res.Error)
	}

	return nil, res, nil
}
