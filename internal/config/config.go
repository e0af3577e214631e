package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultFlushInterval  = 60 * time.Second
	DefaultSendTimeout    = 10 * time.Second
	DefaultInitialBackoff = 1 * time.Second
	DefaultMaxBackoff     = 60 * time.Second
	DefaultMultiplier     = 2.0
	DefaultMaxAttempts    = 8
	DefaultJitter         = 0.25
	DefaultHTTPPort       = 8081
)

// Config is the top-level configuration for relayd.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Relay RelayConfig `yaml:"relay"`
	Admin AdminConfig `yaml:"admin"`
}

// RelayConfig holds all delivery-side settings.
type RelayConfig struct {
	// Endpoint is the full URL of the remote ingestion endpoint.
	Endpoint string `yaml:"endpoint"`

	// SpoolDir is the directory the upstream collector persists bundles
	// into. relayd drains it; it must exist or be creatable.
	SpoolDir string `yaml:"spool_dir"`

	// FlushInterval controls how often a periodic flush is triggered in
	// addition to start-up and new-bundle triggers.
	FlushInterval time.Duration `yaml:"flush_interval"`

	// SendTimeout bounds a single transport send.
	SendTimeout time.Duration `yaml:"send_timeout"`

	// Retry configures the per-bundle backoff policy.
	Retry RetryConfig `yaml:"retry"`

	// Auth configures how relayd authenticates to the ingestion endpoint.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// RetryConfig holds the exponential backoff parameters for retryable
// delivery failures.
type RetryConfig struct {
	// InitialBackoff is the delay after the first failed attempt.
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// MaxBackoff caps the delay regardless of attempt count.
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// Multiplier is the factor applied per additional attempt.
	Multiplier float64 `yaml:"multiplier"`

	// MaxAttempts is the number of sends after which a still-failing
	// bundle is abandoned.
	MaxAttempts int `yaml:"max_attempts"`

	// Jitter is the fractional randomisation applied to each delay,
	// e.g. 0.25 for ±25%. Zero disables jitter.
	Jitter float64 `yaml:"jitter"`
}

// AuthConfig specifies the authentication mode towards the ingestion endpoint.
type AuthConfig struct {
	// Mode is one of: mtls | apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// mTLS fields — used when Mode == "mtls".
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// API key fields — used when Mode == "apikey".
	// Header is the HTTP header name to send the key in.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// Bearer token fields — used when Mode == "bearer".
	// TokenEnv is the name of the environment variable that holds the token.
	TokenEnv string `yaml:"token_env"`

	// Basic auth fields — used when Mode == "basic".
	// Username is the literal username (safe to store in config).
	Username string `yaml:"username"`
	// PasswordEnv is the name of the environment variable that holds the password.
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// TLSConfig holds TLS dial options for the ingestion endpoint.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	// Only use this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// AdminConfig holds the local observability surface settings.
type AdminConfig struct {
	// HTTPPort is the port the admin API (health, metrics, event stream)
	// listens on. Set to -1 to disable the admin server.
	HTTPPort int `yaml:"http_port"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Relay: RelayConfig{
			FlushInterval: DefaultFlushInterval,
			SendTimeout:   DefaultSendTimeout,
			Retry: RetryConfig{
				InitialBackoff: DefaultInitialBackoff,
				MaxBackoff:     DefaultMaxBackoff,
				Multiplier:     DefaultMultiplier,
				MaxAttempts:    DefaultMaxAttempts,
				Jitter:         DefaultJitter,
			},
		},
		Admin: AdminConfig{
			HTTPPort: DefaultHTTPPort,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Relay.Endpoint == "" {
		return fmt.Errorf("relay.endpoint is required")
	}
	if cfg.Relay.SpoolDir == "" {
		return fmt.Errorf("relay.spool_dir is required")
	}
	if cfg.Relay.FlushInterval <= 0 {
		return fmt.Errorf("relay.flush_interval must be positive")
	}
	if cfg.Relay.SendTimeout <= 0 {
		return fmt.Errorf("relay.send_timeout must be positive")
	}

	r := cfg.Relay.Retry
	if r.InitialBackoff <= 0 {
		return fmt.Errorf("relay.retry.initial_backoff must be positive")
	}
	if r.MaxBackoff < r.InitialBackoff {
		return fmt.Errorf("relay.retry.max_backoff must be >= initial_backoff")
	}
	if r.Multiplier < 1 {
		return fmt.Errorf("relay.retry.multiplier must be >= 1")
	}
	if r.MaxAttempts <= 0 {
		return fmt.Errorf("relay.retry.max_attempts must be positive")
	}
	if r.Jitter < 0 || r.Jitter >= 1 {
		return fmt.Errorf("relay.retry.jitter must be in [0, 1)")
	}

	switch cfg.Relay.Auth.Mode {
	case "mtls", "apikey", "bearer", "basic", "none", "":
	default:
		return fmt.Errorf("relay.auth: unknown mode %q", cfg.Relay.Auth.Mode)
	}
	return nil
}
