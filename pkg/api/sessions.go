package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/txn2/moodchat/pkg/chatbot"
	"github.com/txn2/moodchat/pkg/conversation"
	"github.com/txn2/moodchat/pkg/transcript"
)

const defaultExchangeLimit = 50

// sessionListResponse lists live sessions.
type sessionListResponse struct {
	Stats    conversation.Stats  `json:"stats"`
	Sessions []conversation.Info `json:"sessions"`
}

// insightsResponse is the mood summary of one session.
type insightsResponse struct {
	SessionID    string                   `json:"session_id"`
	MoodInsights conversation.MoodInsight `json:"mood_insights"`
	SessionStats chatbot.Stats            `json:"session_stats"`
}

// exchangeListResponse is a page of recorded exchanges.
type exchangeListResponse struct {
	Data   []transcript.Exchange `json:"data"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// listSessions handles GET /api/v1/sessions.
//
//	@Summary	List sessions
//	@Tags		Sessions
//	@Produce	json
//	@Success	200	{object}	sessionListResponse
//	@Router		/api/v1/sessions [get]
func (h *Handler) listSessions(w http.ResponseWriter, _ *http.Request) {
	store := h.deps.Bot.Store()
	writeJSON(w, http.StatusOK, sessionListResponse{
		Stats:    store.Stats(),
		Sessions: store.List(),
	})
}

// getInsights handles GET /api/v1/sessions/{id}/insights.
//
//	@Summary	Get session mood insights
//	@Tags		Sessions
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	insightsResponse
//	@Failure	404	{object}	errorResponse
//	@Router		/api/v1/sessions/{id}/insights [get]
func (h *Handler) getInsights(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	stats, err := h.deps.Bot.SessionStats(id)
	if errors.Is(err, conversation.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, insightsResponse{
		SessionID:    h.deps.Bot.SessionKey(id),
		MoodInsights: h.deps.Bot.Insights(id),
		SessionStats: stats,
	})
}

// deleteSession handles DELETE /api/v1/sessions/{id}.
//
//	@Summary	Delete a session
//	@Tags		Sessions
//	@Param		id	path	string	true	"Session ID"
//	@Success	204
//	@Failure	404	{object}	errorResponse
//	@Router		/api/v1/sessions/{id} [delete]
func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.deps.Bot.Reset(r.Context(), r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listExchanges handles GET /api/v1/exchanges.
//
//	@Summary		List recorded exchanges
//	@Description	Returns recorded exchanges, newest first. Requires a configured database.
//	@Tags			Exchanges
//	@Produce		json
//	@Param			session_id	query		string	false	"Filter by session"
//	@Param			degraded	query		boolean	false	"Only degraded or only clean exchanges"
//	@Param			start_time	query		string	false	"Exchanges after this time (RFC 3339)"
//	@Param			end_time	query		string	false	"Exchanges before this time (RFC 3339)"
//	@Param			limit		query		integer	false	"Page size (default: 50)"
//	@Param			offset		query		integer	false	"Rows to skip"
//	@Success		200			{object}	exchangeListResponse
//	@Failure		404			{object}	errorResponse
//	@Failure		500			{object}	errorResponse
//	@Router			/api/v1/exchanges [get]
func (h *Handler) listExchanges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := transcript.Filter{
		SessionID: q.Get("session_id"),
		StartTime: parseTimeParam(q, "start_time"),
		EndTime:   parseTimeParam(q, "end_time"),
		Limit:     parseIntParam(q, "limit"),
		Offset:    parseIntParam(q, "offset"),
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultExchangeLimit
	}
	if v := q.Get("degraded"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.Degraded = &b
		}
	}

	exchanges, err := h.deps.Recorder.Query(r.Context(), filter)
	if errors.Is(err, transcript.ErrRecorderDisabled) {
		writeError(w, http.StatusNotFound, "exchange recording is not enabled")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query exchanges")
		return
	}

	countFilter := filter
	countFilter.Limit = 0
	countFilter.Offset = 0
	total, err := h.deps.Recorder.Count(r.Context(), countFilter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count exchanges")
		return
	}
	if exchanges == nil {
		exchanges = []transcript.Exchange{}
	}

	writeJSON(w, http.StatusOK, exchangeListResponse{
		Data:   exchanges,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// parseTimeParam parses an RFC3339 time from a query parameter.
func parseTimeParam(q url.Values, key string) *time.Time {
	v := q.Get(key)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}

// parseIntParam parses a non-negative integer query parameter.
func parseIntParam(q url.Values, key string) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
