package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Minimal(t *testing.T) {
	path := writeConfig(t, `
instance:
  id: relay-test
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Instance.ID != "relay-test" {
		t.Errorf("Instance.ID = %q, want relay-test", cfg.Instance.ID)
	}
	if cfg.Upstream.URL != DefaultUpstreamURL {
		t.Errorf("Upstream.URL = %q, want default", cfg.Upstream.URL)
	}
	if cfg.Upstream.ReconnectDelay != DefaultReconnectDelay {
		t.Errorf("ReconnectDelay = %s, want %s", cfg.Upstream.ReconnectDelay, DefaultReconnectDelay)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultServerAddr)
	}
	if cfg.Relay.EventBufferSize != DefaultEventBufferSize {
		t.Errorf("EventBufferSize = %d, want %d", cfg.Relay.EventBufferSize, DefaultEventBufferSize)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
instance:
  id: relay-1
upstream:
  url: wss://testnet.example.com/ws
  reconnect_delay: 2s
server:
  addr: ":8081"
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Upstream.URL != "wss://testnet.example.com/ws" {
		t.Errorf("Upstream.URL = %q", cfg.Upstream.URL)
	}
	if cfg.Upstream.ReconnectDelay != 2*time.Second {
		t.Errorf("ReconnectDelay = %s, want 2s", cfg.Upstream.ReconnectDelay)
	}
	if cfg.Server.Addr != ":8081" {
		t.Errorf("Server.Addr = %q, want :8081", cfg.Server.Addr)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("RELAY_INSTANCE_ID", "relay-from-env")

	path := writeConfig(t, `
instance:
  id: ${RELAY_INSTANCE_ID}
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if cfg.Instance.ID != "relay-from-env" {
		t.Errorf("Instance.ID = %q, want relay-from-env", cfg.Instance.ID)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "instance: [not: valid")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	base := func() *RelayConfig {
		cfg := &RelayConfig{Instance: InstanceConfig{ID: "relay-1"}}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*RelayConfig)
		wantErr bool
	}{
		{"valid", func(*RelayConfig) {}, false},
		{"missing instance id", func(c *RelayConfig) { c.Instance.ID = "" }, true},
		{"bad upstream url", func(c *RelayConfig) { c.Upstream.URL = "https://example.com" }, true},
		{"zero reconnect delay", func(c *RelayConfig) { c.Upstream.ReconnectDelay = 0 }, true},
		{"upstream ping >= ping timeout", func(c *RelayConfig) { c.Upstream.PingInterval = c.Upstream.PingTimeout }, true},
		{"ping >= pong", func(c *RelayConfig) { c.Server.PingInterval = c.Server.PongTimeout }, true},
		{"zero send buffer", func(c *RelayConfig) { c.Server.SendBufferSize = 0 }, true},
		{"zero event buffer", func(c *RelayConfig) { c.Relay.EventBufferSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
