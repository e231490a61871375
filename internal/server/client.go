package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yatin-commits/crypto-relay/internal/model"
)

// client is one downstream WebSocket connection.
type client struct {
	id     model.ClientID
	conn   *websocket.Conn
	relay  Relay
	logger *slog.Logger
	cfg    Config

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(id model.ClientID, conn *websocket.Conn, relay Relay, cfg Config, logger *slog.Logger) *client {
	return &client{
		id:     id,
		conn:   conn,
		relay:  relay,
		logger: logger,
		cfg:    cfg,
		send:   make(chan []byte, cfg.SendBufferSize),
		done:   make(chan struct{}),
	}
}

// start launches the read and write pumps.
func (c *client) start() {
	go c.writePump()
	go c.readPump()
}

// Push enqueues an encoded payload for delivery. Returns false if the client
// is gone or its buffer is full; the payload is then dropped.
func (c *client) Push(data []byte) bool {
	return c.enqueue(data)
}

// enqueue adds a frame to the outbound buffer without blocking.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	case c.send <- data:
		return true
	default:
		return false
	}
}

// sendError reports invalid input back to this client only.
func (c *client) sendError(message string) {
	data, err := json.Marshal(errorEvent{Type: "error", Message: message})
	if err != nil {
		return
	}
	if !c.enqueue(data) {
		c.logger.Debug("error event dropped")
	}
}

// teardown tears the connection down exactly once and notifies the relay
// before the transport resources can be reused.
func (c *client) teardown() {
	c.once.Do(func() {
		close(c.done)
		c.relay.Disconnect(c.id)
		c.conn.Close()
		c.logger.Debug("client torn down")
	})
}

// readPump consumes inbound frames until the connection dies.
func (c *client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(c.cfg.ReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleMessage(data)
	}
}

// handleMessage validates and dispatches one inbound frame.
func (c *client) handleMessage(data []byte) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid json")
		return
	}

	switch req.Action {
	case actionSubscribe:
		symbols, ok := parseSymbolList(req.Symbols)
		if !ok {
			c.sendError("invalid symbol list")
			return
		}
		c.relay.Subscribe(c.id, symbols)

	default:
		c.sendError("unknown action: " + req.Action)
	}
}

// parseSymbolList accepts only a JSON array of strings.
func parseSymbolList(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}
	var symbols []string
	if err := json.Unmarshal(raw, &symbols); err != nil {
		return nil, false
	}
	return symbols, true
}

// writePump drains the outbound buffer and keeps the connection alive.
func (c *client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
