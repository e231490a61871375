package config

import "time"

// RelayConfig is the root configuration for a relay instance.
type RelayConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Server   ServerConfig   `yaml:"server"`
	Relay    RelayOptions   `yaml:"relay"`
}

// InstanceConfig identifies this relay.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// UpstreamConfig holds the venue stream settings.
type UpstreamConfig struct {
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	PingTimeout    time.Duration `yaml:"ping_timeout"`
	BufferSize     int           `yaml:"buffer_size"`
}

// ServerConfig holds the downstream WebSocket/HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PongTimeout    time.Duration `yaml:"pong_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	SendBufferSize int           `yaml:"send_buffer_size"`
	ReadLimit      int64         `yaml:"read_limit"`
}

// RelayOptions holds supervisor settings.
type RelayOptions struct {
	EventBufferSize int `yaml:"event_buffer_size"`
}
