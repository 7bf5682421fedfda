package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/perimetra/fwapi/internal/clock"
	"github.com/perimetra/fwapi/internal/rulestore"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Store  string `json:"store"`
}

// healthProbeID is a fixed uuid used to probe store reachability; the
// expected answer is not-found.
const healthProbeID = "00000000-0000-4000-8000-000000000000"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Uptime: clock.Since(s.startTime).Round(time.Second).String(),
		Store:  "ok",
	}

	if _, err := s.store.Get(r.Context(), healthProbeID); err != nil && !errors.Is(err, rulestore.ErrNotFound) {
		resp.Status = "degraded"
		resp.Store = "unreachable"
	}

	WriteJSON(w, http.StatusOK, resp)
}
