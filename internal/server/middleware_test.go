package server

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/moodchat/pkg/transcript"
)

func TestToolCallLogging_AssignsRequestID(t *testing.T) {
	var gotID string
	next := func(ctx context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		gotID = transcript.RequestID(ctx)
		return &mcp.CallToolResult{}, nil
	}

	handler := toolCallLogging()(next)
	req := &mcp.ServerRequest[*mcp.CallToolParamsRaw]{Params: &mcp.CallToolParamsRaw{Name: "chat"}}
	if _, err := handler(context.Background(), methodToolsCall, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID == "" {
		t.Error("expected a request id on the tool context")
	}
}

func TestToolCallLogging_KeepsExistingRequestID(t *testing.T) {
	var gotID string
	next := func(ctx context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		gotID = transcript.RequestID(ctx)
		return &mcp.CallToolResult{IsError: true}, nil
	}

	ctx := transcript.WithRequestID(context.Background(), "req-http")
	req := &mcp.ServerRequest[*mcp.CallToolParamsRaw]{Params: &mcp.CallToolParamsRaw{Name: "chat"}}
	if _, err := toolCallLogging()(next)(ctx, methodToolsCall, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "req-http" {
		t.Errorf(fmtGotWant, gotID, "req-http")
	}
}

func TestToolCallLogging_PassesOtherMethods(t *testing.T) {
	called := false
	next := func(ctx context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		called = true
		if transcript.RequestID(ctx) != "" {
			t.Error("non tool calls should not get a request id")
		}
		return nil, nil
	}

	if _, err := toolCallLogging()(next)(context.Background(), "tools/list", &mcp.ServerRequest[*mcp.ListToolsParams]{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("next handler not called")
	}
}

func TestToolCallLogging_PropagatesError(t *testing.T) {
	want := errors.New("boom")
	next := func(context.Context, string, mcp.Request) (mcp.Result, error) {
		return nil, want
	}

	req := &mcp.ServerRequest[*mcp.CallToolParamsRaw]{Params: &mcp.CallToolParamsRaw{Name: "chat"}}
	if _, err := toolCallLogging()(next)(context.Background(), methodToolsCall, req); !errors.Is(err, want) {
		t.Errorf("error = %v, want %v", err, want)
	}
}

func TestExtractToolName(t *testing.T) {
	tests := []struct {
		name    string
		req     mcp.Request
		want    string
		wantErr bool
	}{
		{"valid", &mcp.ServerRequest[*mcp.CallToolParamsRaw]{Params: &mcp.CallToolParamsRaw{Name: "chat"}}, "chat", false},
		{"nil params", &mcp.ServerRequest[*mcp.CallToolParamsRaw]{}, "", true},
		{"empty name", &mcp.ServerRequest[*mcp.CallToolParamsRaw]{Params: &mcp.CallToolParamsRaw{}}, "", true},
		{"wrong params type", &mcp.ServerRequest[*mcp.ListToolsParams]{Params: &mcp.ListToolsParams{}}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractToolName(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractToolName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf(fmtGotWant, got, tt.want)
			}
		})
	}
}

func TestInvalidToolCall(t *testing.T) {
	next := func(context.Context, string, mcp.Request) (mcp.Result, error) {
		t.Fatal("next should not be called")
		return nil, nil
	}

	res, err := toolCallLogging()(next)(context.Background(), methodToolsCall, &mcp.ServerRequest[*mcp.CallToolParamsRaw]{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isErrorResult(res) {
		t.Error("expected error result")
	}
}
