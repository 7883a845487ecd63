// Package api provides the chat service's REST endpoints.
//
//	@title						moodchat API
//	@version					1.0
//	@description				Emotion-aware chat backend with per-session mood insights.
//	@BasePath					/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/txn2/moodchat/pkg/chatbot"
	"github.com/txn2/moodchat/pkg/health"
	"github.com/txn2/moodchat/pkg/transcript"
)

// maxBodyBytes caps request bodies; message length is validated separately.
const maxBodyBytes = 64 << 10

// Deps holds the collaborators of the API handler.
type Deps struct {
	Bot      *chatbot.Orchestrator
	Recorder transcript.Recorder
	Health   *health.Checker
	Model    string

	// Static serves the chat page at "/". Optional.
	Static http.Handler

	// Swagger mounts the API docs at /swagger/.
	Swagger bool
}

// Handler provides the REST API.
type Handler struct {
	mux  *http.ServeMux
	deps Deps
}

// NewHandler creates the API handler and registers its routes.
func NewHandler(deps Deps) *Handler {
	if deps.Recorder == nil {
		deps.Recorder = deps.Bot.Recorder()
	}
	if deps.Health == nil {
		deps.Health = health.NewChecker()
	}
	h := &Handler{
		mux:  http.NewServeMux(),
		deps: deps,
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Handle mounts an additional handler, such as the MCP endpoint.
func (h *Handler) Handle(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /chat", h.chat)
	h.mux.HandleFunc("POST /reset_session", h.resetSession)

	h.mux.HandleFunc("GET /api/v1/sessions", h.listSessions)
	h.mux.HandleFunc("GET /api/v1/sessions/{id}/insights", h.getInsights)
	h.mux.HandleFunc("DELETE /api/v1/sessions/{id}", h.deleteSession)
	h.mux.HandleFunc("GET /api/v1/exchanges", h.listExchanges)

	h.mux.HandleFunc("GET /health", h.healthReport)
	h.mux.HandleFunc("GET /healthz", h.deps.Health.LivenessHandler())
	h.mux.HandleFunc("GET /readyz", h.deps.Health.ReadinessHandler())

	if h.deps.Swagger {
		h.mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}
	if h.deps.Static != nil {
		h.mux.Handle("GET /", h.deps.Static)
	}
}

// errorResponse is the body of every error reply.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeBody decodes a JSON request body into v. An empty body is accepted
// only when optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(w, http.StatusBadRequest, "invalid JSON body")
	return false
}
