package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/config"
	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/relay"
	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/service"
)

type Handler struct {
	registry     *relay.Registry
	fingerprints service.FingerprintService
	upgrader     websocket.Upgrader
	cfg          config.RelayConfig
	logger       zerolog.Logger
}

func NewHandler(
	registry *relay.Registry,
	fingerprints service.FingerprintService,
	cfg config.RelayConfig,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		registry:     registry,
		fingerprints: fingerprints,
		upgrader: websocket.Upgrader{
			// Kiosk pages are served from a different origin than the relay.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		cfg:    cfg,
		logger: logger,
	}
}

// HandleWS upgrades the request and runs the connection's read loop. Each
// connection gets its own reader goroutine (this handler), so lookups from
// one client are serviced one at a time, in arrival order.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	conn := relay.NewConnection(ws, h.cfg.SendBufferSize, h.cfg.WriteTimeout, h.logger)
	h.registry.Register(conn)

	defer func() {
		h.registry.Unregister(conn)
		conn.Close()
	}()

	if h.cfg.MaxMessageSize > 0 {
		ws.SetReadLimit(h.cfg.MaxMessageSize)
	}

	for {
		messageType, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Str("connection_id", conn.ID()).Msg("Read error")
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		h.fingerprints.HandleMessage(r.Context(), conn, raw)
	}
}
