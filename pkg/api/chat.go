package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/txn2/moodchat/pkg/chatbot"
	"github.com/txn2/moodchat/pkg/conversation"
)

// chatRequest is the body of POST /chat.
type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// chatResponse is the body of a successful POST /chat.
type chatResponse struct {
	SessionID    string                   `json:"session_id"`
	Reply        string                   `json:"reply"`
	Emotion      string                   `json:"emotion"`
	MoodInsights conversation.MoodInsight `json:"mood_insights"`
	SessionStats chatbot.Stats            `json:"session_stats"`
	Degraded     bool                     `json:"degraded"`
}

// resetRequest is the body of POST /reset_session.
type resetRequest struct {
	SessionID string `json:"session_id"`
}

// resetResponse reports the outcome of a reset.
type resetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// chat handles POST /chat.
//
//	@Summary		Send a chat message
//	@Description	Classifies the message, generates a reply and returns the session's mood insights. Gateway failures degrade the reply instead of failing the request.
//	@Tags			Chat
//	@Accept			json
//	@Produce		json
//	@Param			body	body		chatRequest	true	"Message"
//	@Success		200		{object}	chatResponse
//	@Failure		400		{object}	errorResponse
//	@Failure		500		{object}	errorResponse
//	@Router			/chat [post]
func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	res, err := h.deps.Bot.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		var ve *chatbot.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Message)
			return
		}
		slog.Error("chat failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:    res.SessionID,
		Reply:        res.Reply,
		Emotion:      string(res.Emotion),
		MoodInsights: res.Insight,
		SessionStats: res.Stats,
		Degraded:     res.Degraded(),
	})
}

// resetSession handles POST /reset_session.
//
//	@Summary		Reset a session
//	@Description	Discards the session's history and mood tally. An empty body resets the default session.
//	@Tags			Chat
//	@Accept			json
//	@Produce		json
//	@Param			body	body		resetRequest	false	"Session"
//	@Success		200		{object}	resetResponse
//	@Failure		400		{object}	errorResponse
//	@Router			/reset_session [post]
func (h *Handler) resetSession(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	existed := h.deps.Bot.Reset(r.Context(), req.SessionID)
	msg := "Session reset successfully"
	if !existed {
		msg = "Session was already empty"
	}
	writeJSON(w, http.StatusOK, resetResponse{Success: true, Message: msg})
}
