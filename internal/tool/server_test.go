package tool_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/chain"
	"github.com/hal9000y/mcp-chat/internal/dispatch"
	"github.com/hal9000y/mcp-chat/internal/router"
	"github.com/hal9000y/mcp-chat/internal/tool"
)

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func connect(t *testing.T, server *mcp.Server) *mcp.ClientSession {
	t.Helper()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })

	return clientSession
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any, out any) *mcp.CallToolResult {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	if !result.IsError && out != nil {
		require.NoError(t, json.Unmarshal([]byte(result.Content[0].(*mcp.TextContent).Text), out))
	}

	return result
}

func errorText(result *mcp.CallToolResult) string {
	return result.Content[0].(*mcp.TextContent).Text
}

func TestListTools(t *testing.T) {
	cases := []struct {
		name     string
		invoker  bool
		expected []string
	}{
		{name: "without_invoke", expected: []string{"chat", "extract_entities", "route_message", "sanitize_text"}},
		{name: "with_invoke", invoker: true, expected: []string{"chat", "extract_entities", "invoke", "route_message", "sanitize_text"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := tool.NewServer(&chatSvcMock{}, nil, nil)
			if tc.invoker {
				server = tool.NewServer(&chatSvcMock{}, &invokeSvcMock{}, nil)
			}
			session := connect(t, server)

			res, err := session.ListTools(context.Background(), nil)
			require.NoError(t, err)

			names := make([]string, 0, len(res.Tools))
			for _, tl := range res.Tools {
				names = append(names, tl.Name)
			}
			assert.ElementsMatch(t, tc.expected, names)
		})
	}
}

func TestChat(t *testing.T) {
	var got chain.Request
	svc := &chatSvcMock{
		ChatFunc: func(_ context.Context, req chain.Request) chain.Response {
			got = req
			return chain.Response{RequestID: "r-1", Success: true, Message: "done"}
		},
	}
	session := connect(t, tool.NewServer(svc, nil, nil))

	one, yes := 1, true

	cases := []struct {
		name     string
		req      tool.ChatRequest
		expected chain.Request
		errText  string
	}{
		{
			name:     "defaults",
			req:      tool.ChatRequest{Message: "read my emails"},
			expected: chain.NewRequest("read my emails"),
		},
		{
			name: "overrides",
			req:  tool.ChatRequest{Message: "read my emails", MaxURLs: &one, EnableSummary: &yes},
			expected: chain.Request{
				Message:            "read my emails",
				MaxURLs:            1,
				MaxImages:          chain.DefaultMaxImages,
				EnableToolChaining: true,
				ProcessImages:      true,
				EnableSummary:      true,
			},
		},
		{
			name:    "empty_message",
			req:     tool.ChatRequest{},
			errText: "message cannot be empty",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got = chain.Request{}

			var resp chain.Response
			result := callTool(t, session, "chat", tc.req, &resp)

			if tc.errText != "" {
				require.True(t, result.IsError)
				assert.Contains(t, errorText(result), tc.errText)
				return
			}

			require.False(t, result.IsError, errorText(result))
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, "r-1", resp.RequestID)
			assert.True(t, resp.Success)
		})
	}
}

func TestRouteMessage(t *testing.T) {
	svc := &chatSvcMock{
		PlanFunc: func(message string) router.Plan {
			if message == "read my emails" {
				return router.Plan{GmailRead: true}
			}
			return router.Plan{Invocations: []dispatch.Invocation{{
				Provider:  dispatch.Google,
				Operation: "search",
				Params:    dispatch.Params{"query": message},
			}}}
		},
	}
	session := connect(t, tool.NewServer(svc, nil, nil))

	var plan router.Plan
	result := callTool(t, session, "route_message", tool.RouteMessageRequest{Message: "weather in Paris"}, &plan)
	require.False(t, result.IsError, errorText(result))
	require.Len(t, plan.Invocations, 1)
	assert.Equal(t, "google.search", plan.Invocations[0].Name())
	assert.Equal(t, "weather in Paris", plan.Invocations[0].Params["query"])

	plan = router.Plan{}
	result = callTool(t, session, "route_message", tool.RouteMessageRequest{Message: "read my emails"}, &plan)
	require.False(t, result.IsError, errorText(result))
	assert.True(t, plan.GmailRead)
	assert.Empty(t, plan.Invocations)
}

func TestExtractEntities(t *testing.T) {
	session := connect(t, tool.NewServer(&chatSvcMock{}, nil, func() time.Time { return testNow }))

	text := "Meet me tomorrow at 3:30 pm, notes at https://github.com/golang/go and logo https://example.org/logo.png. " +
		"Contact bob@example.com. Please review the budget file."

	cases := []struct {
		name    string
		req     tool.ExtractEntitiesRequest
		date    string
		errText string
	}{
		{name: "server_clock", req: tool.ExtractEntitiesRequest{Text: text}, date: "2026-10-20"},
		{name: "explicit_now", req: tool.ExtractEntitiesRequest{Text: text, Now: "2027-01-31T12:00:00Z"}, date: "2027-02-01"},
		{name: "bad_now", req: tool.ExtractEntitiesRequest{Text: text, Now: "yesterday"}, errText: "invalid now"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out tool.ExtractEntitiesResponse
			result := callTool(t, session, "extract_entities", tc.req, &out)

			if tc.errText != "" {
				require.True(t, result.IsError)
				assert.Contains(t, errorText(result), tc.errText)
				return
			}

			require.False(t, result.IsError, errorText(result))
			assert.Equal(t, []string{"https://github.com/golang/go", "https://example.org/logo.png"}, out.URLs)
			assert.Equal(t, []string{"https://example.org/logo.png"}, out.Images)
			assert.Len(t, out.Candidates, 2)
			assert.Equal(t, tc.date, out.Date)
			assert.Equal(t, "15:30", out.Time)
			assert.Equal(t, "bob@example.com", out.Email)
			assert.NotEmpty(t, out.Instructions)
		})
	}
}

func TestSanitizeText(t *testing.T) {
	session := connect(t, tool.NewServer(&chatSvcMock{}, nil, nil))

	cases := []struct {
		name    string
		req     tool.SanitizeTextRequest
		absent  string
		present string
	}{
		{
			name:    "api_key",
			req:     tool.SanitizeTextRequest{Text: "my api_key: AB12CD34EF56GH78IJ"},
			absent:  "AB12CD34EF56GH78IJ",
			present: "[REDACTED API KEY]",
		},
		{
			name:    "markup",
			req:     tool.SanitizeTextRequest{Text: "<b>Hi</b>   there"},
			absent:  "<b>",
			present: "Hi there",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out tool.SanitizeTextResponse
			result := callTool(t, session, "sanitize_text", tc.req, &out)

			require.False(t, result.IsError, errorText(result))
			assert.NotContains(t, out.Text, tc.absent)
			assert.Contains(t, out.Text, tc.present)
		})
	}
}

func TestInvoke(t *testing.T) {
	invoker := &invokeSvcMock{
		DispatchFunc: func(_ context.Context, inv dispatch.Invocation) dispatch.Result {
			if inv.Provider == dispatch.Slack {
				return dispatch.Result{Invocation: inv, Error: "slack credentials not configured", Kind: apierr.KindConfig}
			}
			return dispatch.Result{Invocation: inv, Success: true, Payload: map[string]any{"title": inv.Params["title"]}}
		},
	}
	session := connect(t, tool.NewServer(&chatSvcMock{}, invoker, nil))

	var res dispatch.Result
	result := callTool(t, session, "invoke", tool.InvokeRequest{
		Provider:   "wikipedia",
		Operation:  "get_page",
		Parameters: map[string]any{"title": "Go"},
	}, &res)
	require.False(t, result.IsError, errorText(result))
	assert.True(t, res.Success)
	assert.Equal(t, map[string]any{"title": "Go"}, res.Payload)

	result = callTool(t, session, "invoke", tool.InvokeRequest{Provider: "slack", Operation: "send_message"}, nil)
	require.True(t, result.IsError)
	assert.Contains(t, errorText(result), "slack.send_message failed (config)")

	result = callTool(t, session, "invoke", tool.InvokeRequest{Provider: "slack"}, nil)
	require.True(t, result.IsError)
	assert.Contains(t, errorText(result), "provider and operation are required")
}
