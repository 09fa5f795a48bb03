package status

import (
	"encoding/json"
	"net/http"

	"github.com/opsboard/dashboard-stream-service/internal/service"
)

// Handler exposes the read-only status surface for health checks.
type Handler struct {
	streamer service.Streamer
}

func NewHandler(streamer service.Streamer) *Handler {
	return &Handler{streamer: streamer}
}

func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.streamer.Status())
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
