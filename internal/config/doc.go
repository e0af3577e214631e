// Package config loads and watches the relayd configuration file (config.yaml).
//
// Top-level types:
//   - Config{Relay, Admin} — full config tree parsed from YAML
//   - RelayConfig — endpoint, spool_dir, flush_interval, send_timeout,
//     retry, auth, tls
//   - RetryConfig — initial_backoff, max_backoff, multiplier, max_attempts,
//     jitter; consumed by the engine's retry policy
//   - AuthConfig — mode (mtls|apikey|bearer|basic|none), cert/key/ca files,
//     header, key_env, token_env, password_env; Key(), Token() and Password()
//     resolve secrets from environment variables
//   - AdminConfig — http_port for the local health/metrics/event surface
//
// Load(path) reads the YAML file, applies defaults (60s flush, 10s send
// timeout, 1s→60s backoff ×2 with ±25% jitter, 8 attempts, port 8081), then
// validates required fields and enums.
//
// Watch(ctx, path, current, onChange) uses fsnotify to detect file changes
// and calls onChange with the newly parsed Config. Endpoint and spool_dir
// changes are flagged as restart-required; retry and interval changes are
// hot-swappable. The rename→create pattern used by atomic-save editors
// (vim, VS Code) is handled by re-adding the watch after a rename event.
package config
