package tool_test

import (
	"context"

	"github.com/hal9000y/mcp-chat/internal/chain"
	"github.com/hal9000y/mcp-chat/internal/dispatch"
	"github.com/hal9000y/mcp-chat/internal/router"
)

type chatSvcMock struct {
	ChatFunc func(ctx context.Context, req chain.Request) chain.Response
	PlanFunc func(message string) router.Plan
}

func (m *chatSvcMock) Chat(ctx context.Context, req chain.Request) chain.Response {
	if m.ChatFunc == nil {
		panic("chatSvcMock.ChatFunc: method is nil but Chat was just called")
	}
	return m.ChatFunc(ctx, req)
}

func (m *chatSvcMock) Plan(message string) router.Plan {
	if m.PlanFunc == nil {
		panic("chatSvcMock.PlanFunc: method is nil but Plan was just called")
	}
	return m.PlanFunc(message)
}

type invokeSvcMock struct {
	DispatchFunc func(ctx context.Context, inv dispatch.Invocation) dispatch.Result
}

func (m *invokeSvcMock) Dispatch(ctx context.Context, inv dispatch.Invocation) dispatch.Result {
	if m.DispatchFunc == nil {
		panic("invokeSvcMock.DispatchFunc: method is nil but Dispatch was just called")
	}
	return m.DispatchFunc(ctx, inv)
}
