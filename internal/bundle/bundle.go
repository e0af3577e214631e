package bundle

import "time"

// Ref is the delivery-relevant view of one spooled bundle. The payload itself
// is loaded separately and only for the duration of a single send attempt.
type Ref struct {
	// ID is the stable identifier assigned when the bundle was persisted.
	ID string

	// CreatedAt is the persistence timestamp. Bundles are delivered in
	// non-decreasing CreatedAt order.
	CreatedAt time.Time

	// AttemptCount is the number of transport sends performed for this
	// bundle so far. A send that finds the endpoint unreachable aborts the
	// whole pass and is not counted against the bundle.
	AttemptCount int

	// NextEligible is the earliest time the bundle may be attempted again.
	// Defaults to CreatedAt; pushed forward by retry backoff.
	NextEligible time.Time
}

// Eligible reports whether the bundle may be attempted at the given time,
// i.e. it is not inside a backoff window.
func (r Ref) Eligible(now time.Time) bool {
	return !r.NextEligible.After(now)
}
