package api

import (
	"net/http"
	"time"
)

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Model     string            `json:"model"`
	State     string            `json:"state"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// healthReport handles GET /health.
//
//	@Summary	Service health
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	healthResponse
//	@Failure	503	{object}	healthResponse
//	@Router		/health [get]
func (h *Handler) healthReport(w http.ResponseWriter, r *http.Request) {
	report := h.deps.Health.Evaluate(r.Context())
	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Model:     h.deps.Model,
		State:     report.Status,
		Checks:    report.Checks,
	}
	if !report.Healthy() {
		resp.Status = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
