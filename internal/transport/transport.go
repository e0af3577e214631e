package transport

import "context"

// Class is the delivery engine's classification of one send attempt.
type Class int

const (
	// Success: the endpoint accepted the bundle; it may be deleted.
	Success Class = iota

	// Retryable: transient failure (timeout, 5xx-class response). The
	// bundle stays spooled and is retried with backoff.
	Retryable

	// Permanent: the endpoint rejected this bundle (4xx-class response).
	// Retrying cannot help; the bundle is abandoned.
	Permanent

	// Unreachable: the endpoint itself could not be reached. The current
	// flush pass is aborted and the whole backlog kept as-is.
	Unreachable
)

func (c Class) String() string {
	switch c {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	case Permanent:
		return "permanent"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single send attempt. Reason is empty on success.
type Outcome struct {
	Class  Class
	Reason string
}

// Succeeded returns a Success outcome.
func Succeeded() Outcome { return Outcome{Class: Success} }

// RetryableFailure returns a Retryable outcome with the given reason.
func RetryableFailure(reason string) Outcome {
	return Outcome{Class: Retryable, Reason: reason}
}

// PermanentFailure returns a Permanent outcome with the given reason.
func PermanentFailure(reason string) Outcome {
	return Outcome{Class: Permanent, Reason: reason}
}

// EndpointUnreachable returns an Unreachable outcome with the given reason.
func EndpointUnreachable(reason string) Outcome {
	return Outcome{Class: Unreachable, Reason: reason}
}

// Transport performs a single network send of one bundle payload.
//
// Implementations must not retry internally — all retry policy lives in the
// engine so its semantics stay centralised and testable. The bundle ID is
// carried on the wire so the ingestion side can deduplicate retried sends.
type Transport interface {
	Send(ctx context.Context, id string, payload []byte) Outcome
}
