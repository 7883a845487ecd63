package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/moodchat/pkg/transcript"
)

const methodToolsCall = "tools/call"

// toolCallLogging creates MCP protocol-level middleware that tags each
// tools/call request with a request id and logs its outcome.
func toolCallLogging() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			toolName, err := extractToolName(req)
			if err != nil {
				return errorResult(fmt.Sprintf("invalid request: %v", err)), nil
			}

			requestID := transcript.RequestID(ctx)
			if requestID == "" {
				requestID = uuid.NewString()
				ctx = transcript.WithRequestID(ctx, requestID)
			}

			start := time.Now()
			result, err := next(ctx, method, req)

			attrs := []any{
				"tool", toolName,
				"request_id", requestID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case err != nil:
				slog.Warn("mcp tool call failed", append(attrs, "error", err)...)
			case isErrorResult(result):
				slog.Info("mcp tool call returned error", attrs...)
			default:
				slog.Debug("mcp tool call", attrs...)
			}
			return result, err
		}
	}
}

// extractToolName extracts the tool name from a tools/call request.
func extractToolName(req mcp.Request) (string, error) {
	params := req.GetParams()
	if params == nil {
		return "", errors.New("missing params")
	}

	callParams, ok := params.(*mcp.CallToolParamsRaw)
	if !ok {
		return "", fmt.Errorf("unexpected params type: %T", params)
	}
	// The assertion succeeds for a typed nil pointer.
	if callParams == nil {
		return "", errors.New("missing params")
	}
	if callParams.Name == "" {
		return "", errors.New("missing tool name")
	}
	return callParams.Name, nil
}

func isErrorResult(r mcp.Result) bool {
	res, ok := r.(*mcp.CallToolResult)
	return ok && res != nil && res.IsError
}
