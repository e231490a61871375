package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *RelayConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if !strings.HasPrefix(c.Upstream.URL, "ws://") && !strings.HasPrefix(c.Upstream.URL, "wss://") {
		return fmt.Errorf("upstream.url must be a ws:// or wss:// URL, got %q", c.Upstream.URL)
	}
	if c.Upstream.ReconnectDelay <= 0 {
		return errors.New("upstream.reconnect_delay must be > 0")
	}
	if c.Upstream.PingInterval >= c.Upstream.PingTimeout {
		return fmt.Errorf("upstream.ping_interval (%s) must be less than upstream.ping_timeout (%s)",
			c.Upstream.PingInterval, c.Upstream.PingTimeout)
	}
	if c.Upstream.BufferSize < 1 {
		return errors.New("upstream.buffer_size must be >= 1")
	}

	if c.Server.PingInterval >= c.Server.PongTimeout {
		return fmt.Errorf("server.ping_interval (%s) must be less than server.pong_timeout (%s)",
			c.Server.PingInterval, c.Server.PongTimeout)
	}
	if c.Server.SendBufferSize < 1 {
		return errors.New("server.send_buffer_size must be >= 1")
	}
	if c.Server.ReadLimit < 1 {
		return errors.New("server.read_limit must be >= 1")
	}

	if c.Relay.EventBufferSize < 1 {
		return errors.New("relay.event_buffer_size must be >= 1")
	}

	return nil
}
