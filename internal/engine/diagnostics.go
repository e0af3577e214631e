package engine

import "time"

// ReasonMaxAttempts tags abandonment caused by retry exhaustion, as opposed
// to an endpoint rejection whose reason comes from the transport outcome.
const ReasonMaxAttempts = "max attempts exceeded"

// Diagnostics receives structured delivery events from the engine. The
// engine does not care how they are rendered — logging, counters and the
// live event stream are all consumers of this interface.
//
// Implementations must be safe for concurrent use and must not block: the
// engine calls them from the flush worker between sends.
type Diagnostics interface {
	// BundleSent fires after the endpoint accepted a bundle and it was
	// removed from the spool.
	BundleSent(id string)

	// BundleRetryScheduled fires when a retryable failure defers a bundle.
	// attempt is the attempt count including the failed send; delay is the
	// backoff until the bundle becomes eligible again.
	BundleRetryScheduled(id string, attempt int, delay time.Duration)

	// BundleAbandoned fires when a bundle is permanently dropped, either
	// rejected by the endpoint or after retry exhaustion
	// (reason == ReasonMaxAttempts).
	BundleAbandoned(id, reason string)

	// EndpointUnreachable fires when a flush pass is aborted because the
	// endpoint itself could not be reached.
	EndpointUnreachable(reason string)

	// FlushFinished fires at the end of each drain pass with the session
	// sequence number and per-pass tallies.
	FlushFinished(session uint64, sent, deferred, abandoned int)
}

// Multi fans one diagnostics stream out to several consumers.
type Multi []Diagnostics

func (m Multi) BundleSent(id string) {
	for _, d := range m {
		d.BundleSent(id)
	}
}

func (m Multi) BundleRetryScheduled(id string, attempt int, delay time.Duration) {
	for _, d := range m {
		d.BundleRetryScheduled(id, attempt, delay)
	}
}

func (m Multi) BundleAbandoned(id, reason string) {
	for _, d := range m {
		d.BundleAbandoned(id, reason)
	}
}

func (m Multi) EndpointUnreachable(reason string) {
	for _, d := range m {
		d.EndpointUnreachable(reason)
	}
}

func (m Multi) FlushFinished(session uint64, sent, deferred, abandoned int) {
	for _, d := range m {
		d.FlushFinished(session, sent, deferred, abandoned)
	}
}

// nopDiagnostics is used when the caller passes nil.
type nopDiagnostics struct{}

func (nopDiagnostics) BundleSent(string)                              {}
func (nopDiagnostics) BundleRetryScheduled(string, int, time.Duration) {}
func (nopDiagnostics) BundleAbandoned(string, string)                 {}
func (nopDiagnostics) EndpointUnreachable(string)                     {}
func (nopDiagnostics) FlushFinished(uint64, int, int, int)            {}
