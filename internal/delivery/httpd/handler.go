package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/relay"
	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/service"
)

type Handler struct {
	broadcasts service.BroadcastService
	registry   *relay.Registry
	logger     zerolog.Logger
}

func NewHandler(
	broadcasts service.BroadcastService,
	registry *relay.Registry,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		broadcasts: broadcasts,
		registry:   registry,
		logger:     logger,
	}
}

// RegisterRoutes mounts the operational endpoints served next to the
// WebSocket surface.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/stats", h.GetStats)
}

// NotifyRouter is the one-shot broadcast surface. The contract is fixed:
// POST /notify is the only route, everything else is a plain 404.
func (h *Handler) NotifyRouter() chi.Router {
	router := chi.NewRouter()

	router.Post("/notify", h.Notify)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writePlain(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writePlain(w, http.StatusNotFound, "Not Found")
	})

	return router
}

func writePlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
