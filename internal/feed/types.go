package feed

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrStaleConnection = errors.New("stale connection")
)

// State is the feed connection state.
type State string

const (
	StateInit         State = "init"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// Message wraps raw frame data with its local receive timestamp.
type Message struct {
	Data       []byte
	ReceivedAt time.Time
}

// command is the venue's stream control frame.
type command struct {
	Method string   `json:"method"` // "SUBSCRIBE" or "UNSUBSCRIBE"
	Params []string `json:"params"` // stream names, e.g. "btcusdt@ticker"
	ID     int64    `json:"id"`
}

const (
	methodSubscribe   = "SUBSCRIBE"
	methodUnsubscribe = "UNSUBSCRIBE"
)

// tickerWire is the venue's inbound ticker frame. All three fields are
// required; a frame missing any of them is a protocol anomaly.
type tickerWire struct {
	Symbol        string `json:"s"` // raw symbol, e.g. "BTCUSDT"
	LastPrice     string `json:"c"` // last price as decimal string
	PercentChange string `json:"P"` // 24h percent change as decimal string
}

// ClientConfig configures a single WebSocket connection.
type ClientConfig struct {
	URL              string        // Venue stream URL
	HandshakeTimeout time.Duration // Dial timeout
	WriteTimeout     time.Duration // Write deadline for sends
	PingInterval     time.Duration // Keepalive ping period
	PingTimeout      time.Duration // Max silence before the connection is stale
	BufferSize       int           // Message channel buffer size
}

// Config configures the feed manager.
type Config struct {
	URL            string        // Venue stream URL
	ReconnectDelay time.Duration // Fixed wait between reconnect attempts
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	PingTimeout    time.Duration // Max silence before the connection is declared dead
	BufferSize     int           // Buffer size for raw messages and parsed ticks
}

// Stats provides feed statistics for health reporting.
type Stats struct {
	State             State
	SubscribedSymbols int
	TicksParsed       int64
	FramesDiscarded   int64
	Reconnects        int64
}
