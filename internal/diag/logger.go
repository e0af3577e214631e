package diag

import (
	"log/slog"
	"time"
)

// Logger renders engine diagnostics as structured slog records. One event,
// one record — the engine itself never logs delivery outcomes directly.
type Logger struct{}

func NewLogger() Logger { return Logger{} }

func (Logger) BundleSent(id string) {
	slog.Info("diag: bundle sent", "bundle", id)
}

func (Logger) BundleRetryScheduled(id string, attempt int, delay time.Duration) {
	slog.Warn("diag: bundle retry scheduled",
		"bundle", id, "attempt", attempt, "retry_in", delay)
}

func (Logger) BundleAbandoned(id, reason string) {
	slog.Error("diag: bundle abandoned", "bundle", id, "reason", reason)
}

func (Logger) EndpointUnreachable(reason string) {
	slog.Warn("diag: endpoint unreachable, flush pass aborted", "reason", reason)
}

func (Logger) FlushFinished(session uint64, sent, deferred, abandoned int) {
	slog.Info("diag: flush pass finished",
		"session", session, "sent", sent, "deferred", deferred, "abandoned", abandoned)
}
