// Package diag implements consumers of the engine's diagnostics stream:
// a slog-backed Logger that renders each delivery event as one structured
// log record, and Counters, lock-free delivery totals read by the admin
// health endpoint and the Prometheus text exposition.
package diag
