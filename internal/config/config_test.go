package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
relay:
  endpoint: "https://ingest.example.com/v1/events"
  spool_dir: "/var/lib/relayd/spool"
  flush_interval: 30s
  send_timeout: 5s
  retry:
    initial_backoff: 2s
    max_backoff: 120s
    multiplier: 3.0
    max_attempts: 5
  auth:
    mode: none
`
	cfg := loadFromString(t, yaml)

	if cfg.Relay.Endpoint != "https://ingest.example.com/v1/events" {
		t.Errorf("endpoint: got %q", cfg.Relay.Endpoint)
	}
	if cfg.Relay.FlushInterval != 30*time.Second {
		t.Errorf("flush_interval: got %v", cfg.Relay.FlushInterval)
	}
	if cfg.Relay.Retry.InitialBackoff != 2*time.Second {
		t.Errorf("initial_backoff: got %v", cfg.Relay.Retry.InitialBackoff)
	}
	if cfg.Relay.Retry.MaxAttempts != 5 {
		t.Errorf("max_attempts: got %d", cfg.Relay.Retry.MaxAttempts)
	}
}

func TestLoad_Defaults(t *testing.T) {
	yaml := `
relay:
  endpoint: "https://ingest.example.com/v1/events"
  spool_dir: "/tmp/spool"
`
	cfg := loadFromString(t, yaml)

	if cfg.Relay.FlushInterval != DefaultFlushInterval {
		t.Errorf("default flush_interval: got %v, want %v", cfg.Relay.FlushInterval, DefaultFlushInterval)
	}
	if cfg.Relay.SendTimeout != DefaultSendTimeout {
		t.Errorf("default send_timeout: got %v, want %v", cfg.Relay.SendTimeout, DefaultSendTimeout)
	}
	if cfg.Relay.Retry.MaxBackoff != DefaultMaxBackoff {
		t.Errorf("default max_backoff: got %v, want %v", cfg.Relay.Retry.MaxBackoff, DefaultMaxBackoff)
	}
	if cfg.Relay.Retry.Jitter != DefaultJitter {
		t.Errorf("default jitter: got %v, want %v", cfg.Relay.Retry.Jitter, DefaultJitter)
	}
	if cfg.Admin.HTTPPort != DefaultHTTPPort {
		t.Errorf("default http_port: got %d, want %d", cfg.Admin.HTTPPort, DefaultHTTPPort)
	}
}

func TestLoad_MissingEndpoint(t *testing.T) {
	yaml := `
relay:
  spool_dir: "/tmp/spool"
`
	_, err := loadStringErr(t, yaml)
	if err == nil {
		t.Fatal("expected error for missing endpoint, got nil")
	}
}

func TestLoad_MissingSpoolDir(t *testing.T) {
	yaml := `
relay:
  endpoint: "https://ingest.example.com/v1/events"
`
	_, err := loadStringErr(t, yaml)
	if err == nil {
		t.Fatal("expected error for missing spool_dir, got nil")
	}
}

func TestLoad_InvalidRetry(t *testing.T) {
	tests := []struct {
		name  string
		retry string
	}{
		{"zero multiplier", "multiplier: 0.5"},
		{"zero max_attempts", "max_attempts: 0"},
		{"negative jitter", "jitter: -0.1"},
		{"jitter of one", "jitter: 1.0"},
		{"max below initial", "initial_backoff: 10s\n    max_backoff: 1s"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			yaml := `
relay:
  endpoint: "https://ingest.example.com/v1/events"
  spool_dir: "/tmp/spool"
  retry:
    ` + tc.retry + `
`
			if _, err := loadStringErr(t, yaml); err == nil {
				t.Fatalf("expected error for %s, got nil", tc.name)
			}
		})
	}
}

func TestLoad_UnknownAuthMode(t *testing.T) {
	yaml := `
relay:
  endpoint: "https://ingest.example.com/v1/events"
  spool_dir: "/tmp/spool"
  auth:
    mode: kerberos
`
	_, err := loadStringErr(t, yaml)
	if err == nil {
		t.Fatal("expected error for unknown auth mode, got nil")
	}
}

func TestLoad_AuthModes(t *testing.T) {
	tests := []struct {
		name string
		mode string
	}{
		{"mtls", "mtls"},
		{"apikey", "apikey"},
		{"bearer", "bearer"},
		{"basic", "basic"},
		{"none", "none"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			yaml := `
relay:
  endpoint: "https://ingest.example.com/v1/events"
  spool_dir: "/tmp/spool"
  auth:
    mode: ` + tc.mode + `
`
			cfg := loadFromString(t, yaml)
			if cfg.Relay.Auth.Mode != tc.mode {
				t.Errorf("auth mode: got %q, want %q", cfg.Relay.Auth.Mode, tc.mode)
			}
		})
	}
}

func TestAuthConfig_EnvResolution(t *testing.T) {
	t.Setenv("RELAYD_TEST_KEY", "secret-key")
	t.Setenv("RELAYD_TEST_TOKEN", "secret-token")

	a := AuthConfig{KeyEnv: "RELAYD_TEST_KEY", TokenEnv: "RELAYD_TEST_TOKEN"}
	if got := a.Key(); got != "secret-key" {
		t.Errorf("Key(): got %q", got)
	}
	if got := a.Token(); got != "secret-token" {
		t.Errorf("Token(): got %q", got)
	}

	empty := AuthConfig{}
	if got := empty.Key(); got != "" {
		t.Errorf("Key() with no KeyEnv: got %q, want empty", got)
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return Load(path)
}
