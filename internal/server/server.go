package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/yatin-commits/crypto-relay/internal/model"
)

// Handler upgrades HTTP requests to WebSocket client connections.
type Handler struct {
	cfg      Config
	relay    Relay
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the WebSocket endpoint handler.
func NewHandler(cfg Config, relay Relay, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		cfg:    cfg,
		relay:  relay,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the fronting proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP accepts one downstream client.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	id := model.NewClientID()
	cl := newClient(id, conn, h.relay, h.cfg, h.logger.With("client", id))

	// Attach before the pumps start so the first subscribe finds its pusher.
	h.relay.Attach(id, cl)
	cl.start()

	h.logger.Debug("client connected", "client", id, "remote", r.RemoteAddr)
}
