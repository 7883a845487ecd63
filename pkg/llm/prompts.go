package llm

import (
	"fmt"
	"strings"
)

// DefaultSystemPrompt frames the assistant for reply generation.
const DefaultSystemPrompt = "You are a compassionate mental health support chatbot. " +
	"Be empathetic, supportive, and safe. Keep responses under 120 words."

// Chat roles understood by OpenAI-compatible endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContextTurn is a prior message supplied as reply context.
type ContextTurn struct {
	Role string // RoleUser or RoleAssistant
	Text string
}

// ReplyRequest carries everything needed to generate a reply.
type ReplyRequest struct {
	Text    string
	Emotion string
	History []ContextTurn
}

func classifyMessages(labels []string, text string) []Message {
	return []Message{
		{
			Role: RoleSystem,
			Content: "You are an assistant that classifies the primary emotional tone of the user's message. " +
				"Choose only one word from this list: " + strings.Join(labels, ", ") + ".",
		},
		{Role: RoleUser, Content: "Classify the emotion in this message: " + text},
	}
}

func replyMessages(systemPrompt string, contextTurns int, req ReplyRequest) []Message {
	msgs := make([]Message, 0, 3+contextTurns)
	msgs = append(msgs, Message{Role: RoleSystem, Content: systemPrompt})
	if req.Emotion != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: fmt.Sprintf("The detected emotion is: %s.", req.Emotion)})
	}

	history := req.History
	if len(history) > contextTurns {
		history = history[len(history)-contextTurns:]
	}
	for _, t := range history {
		if t.Text == "" {
			continue
		}
		role := RoleUser
		if t.Role == RoleAssistant {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: t.Text})
	}

	return append(msgs, Message{Role: RoleUser, Content: req.Text})
}
