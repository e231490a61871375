package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultUpstreamURL    = "wss://stream.binance.com:9443/ws"
	DefaultReconnectDelay = 5 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultPingInterval   = 30 * time.Second
	DefaultPingTimeout    = 90 * time.Second
	DefaultBufferSize     = 1024

	DefaultServerAddr     = ":3000"
	DefaultPongTimeout    = 60 * time.Second
	DefaultClientPing     = 50 * time.Second
	DefaultSendBufferSize = 256
	DefaultReadLimit      = 4096

	DefaultEventBufferSize = 256
)

func (c *RelayConfig) applyDefaults() {
	// Upstream defaults
	if c.Upstream.URL == "" {
		c.Upstream.URL = DefaultUpstreamURL
	}
	if c.Upstream.ReconnectDelay == 0 {
		c.Upstream.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Upstream.WriteTimeout == 0 {
		c.Upstream.WriteTimeout = DefaultWriteTimeout
	}
	if c.Upstream.PingInterval == 0 {
		c.Upstream.PingInterval = DefaultPingInterval
	}
	if c.Upstream.PingTimeout == 0 {
		c.Upstream.PingTimeout = DefaultPingTimeout
	}
	if c.Upstream.BufferSize == 0 {
		c.Upstream.BufferSize = DefaultBufferSize
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.PongTimeout == 0 {
		c.Server.PongTimeout = DefaultPongTimeout
	}
	if c.Server.PingInterval == 0 {
		c.Server.PingInterval = DefaultClientPing
	}
	if c.Server.SendBufferSize == 0 {
		c.Server.SendBufferSize = DefaultSendBufferSize
	}
	if c.Server.ReadLimit == 0 {
		c.Server.ReadLimit = DefaultReadLimit
	}

	// Relay defaults
	if c.Relay.EventBufferSize == 0 {
		c.Relay.EventBufferSize = DefaultEventBufferSize
	}
}
