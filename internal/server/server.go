// Package server exposes the chat operations as MCP tools and resources.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yosida95/uritemplate/v3"

	"github.com/txn2/moodchat/pkg/chatbot"
	"github.com/txn2/moodchat/pkg/conversation"
)

// Version is set at build time.
var Version = "dev"

// Name is the MCP implementation name.
const Name = "moodchat"

// sessionTemplateURI addresses the mood summary of one session.
const sessionTemplateURI = "mood://sessions/{session_id}"

type chatInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation key; the default session is used when empty"`
	Message   string `json:"message" jsonschema:"the user's message"`
}

type sessionInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation key; the default session is used when empty"`
}

// chatOutput is the JSON body returned by the chat tool.
type chatOutput struct {
	SessionID    string                   `json:"session_id"`
	Reply        string                   `json:"reply"`
	Emotion      string                   `json:"emotion"`
	MoodInsights conversation.MoodInsight `json:"mood_insights"`
	SessionStats chatbot.Stats            `json:"session_stats"`
	Degraded     bool                     `json:"degraded"`
}

// sessionOutput is the mood summary of one session.
type sessionOutput struct {
	SessionID    string                   `json:"session_id"`
	MoodInsights conversation.MoodInsight `json:"mood_insights"`
	SessionStats *chatbot.Stats           `json:"session_stats,omitempty"`
}

type resetOutput struct {
	Success bool `json:"success"`
	Existed bool `json:"existed"`
}

// New creates an MCP server backed by bot.
func New(bot *chatbot.Orchestrator) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil)
	s.AddReceivingMiddleware(toolCallLogging())
	h := &handlers{bot: bot}

	mcp.AddTool(s, &mcp.Tool{
		Name:        "chat",
		Title:       "Chat",
		Description: "Send a message in a session. Returns an empathetic reply, the detected emotion and the session's mood insights.",
	}, h.chat)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "mood_insights",
		Title:       "Mood Insights",
		Description: "Summarize the emotional state of a session: dominant emotion, distribution, trend and risk level.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, h.moodInsights)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "reset_session",
		Title:       "Reset Session",
		Description: "Discard the history and mood tally of a session.",
		Annotations: &mcp.ToolAnnotations{IdempotentHint: true},
	}, h.resetSession)

	s.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: sessionTemplateURI,
		Name:        "Session Mood",
		Description: "Mood insights and stats of an existing session",
		MIMEType:    "application/json",
	}, h.sessionResource)

	return s
}

// Handler serves s over the streamable HTTP transport.
func Handler(s *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s }, nil)
}

type handlers struct {
	bot *chatbot.Orchestrator
}

func (h *handlers) chat(ctx context.Context, _ *mcp.CallToolRequest, in chatInput) (*mcp.CallToolResult, any, error) {
	res, err := h.bot.HandleMessage(ctx, in.SessionID, in.Message)
	if err != nil {
		var ve *chatbot.ValidationError
		if errors.As(err, &ve) {
			return errorResult(ve.Message), nil, nil
		}
		return errorResult("chat failed: " + err.Error()), nil, nil
	}

	return jsonResult(chatOutput{
		SessionID:    res.SessionID,
		Reply:        res.Reply,
		Emotion:      string(res.Emotion),
		MoodInsights: res.Insight,
		SessionStats: res.Stats,
		Degraded:     res.Degraded(),
	})
}

func (h *handlers) moodInsights(_ context.Context, _ *mcp.CallToolRequest, in sessionInput) (*mcp.CallToolResult, any, error) {
	return jsonResult(h.session(in.SessionID))
}

func (h *handlers) resetSession(ctx context.Context, _ *mcp.CallToolRequest, in sessionInput) (*mcp.CallToolResult, any, error) {
	existed := h.bot.Reset(ctx, in.SessionID)
	return jsonResult(resetOutput{Success: true, Existed: existed})
}

// session builds the summary of a session; stats are omitted for sessions
// that do not exist.
func (h *handlers) session(key string) sessionOutput {
	out := sessionOutput{
		SessionID:    h.bot.SessionKey(key),
		MoodInsights: h.bot.Insights(key),
	}
	if stats, err := h.bot.SessionStats(key); err == nil {
		out.SessionStats = &stats
	}
	return out
}

func (h *handlers) sessionResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	vars, err := parseTemplateVars(sessionTemplateURI, uri)
	if err != nil || vars["session_id"] == "" {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is for SDK type matching
	}

	out := h.session(vars["session_id"])
	if out.SessionStats == nil {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is for SDK type matching
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

// parseTemplateVars extracts named variables from a URI using a URI template.
func parseTemplateVars(templateStr, uri string) (map[string]string, error) {
	tmpl, err := uritemplate.New(templateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid template %q: %w", templateStr, err)
	}

	match := tmpl.Match(uri)
	if match == nil {
		return nil, fmt.Errorf("uri %q does not match template %q", uri, templateStr)
	}

	result := make(map[string]string)
	for _, name := range tmpl.Varnames() {
		result[name] = match.Get(name).String()
	}
	return result, nil
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error: " + err.Error()), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
