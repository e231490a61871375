package server

import (
	"encoding/json"
	"time"

	"github.com/yatin-commits/crypto-relay/internal/model"
	"github.com/yatin-commits/crypto-relay/internal/relay"
)

// Relay is the supervisor surface the transport drives.
type Relay interface {
	// Attach registers a client's push target.
	Attach(id model.ClientID, p relay.Pusher)

	// Subscribe replaces the client's desired symbol set.
	Subscribe(id model.ClientID, symbols []string)

	// Disconnect purges all relay state for the client.
	Disconnect(id model.ClientID)
}

// Config configures the WebSocket transport.
type Config struct {
	WriteTimeout   time.Duration // Write deadline for outbound frames
	PongTimeout    time.Duration // Max silence before a client is considered gone
	PingInterval   time.Duration // Keepalive ping period (must be < PongTimeout)
	SendBufferSize int           // Per-client outbound buffer
	ReadLimit      int64         // Max inbound frame size in bytes
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:   5 * time.Second,
		PongTimeout:    60 * time.Second,
		PingInterval:   50 * time.Second,
		SendBufferSize: 256,
		ReadLimit:      4096,
	}
}

const actionSubscribe = "subscribe"

// request is an inbound client frame.
type request struct {
	Action string `json:"action"`
	// Symbols is kept raw so a payload that is not a list of strings can be
	// rejected with an error event instead of a closed connection.
	Symbols json.RawMessage `json:"symbols"`
}

// errorEvent is sent to a single client when its input is invalid.
type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
