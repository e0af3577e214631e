// Package engine is the persistent delivery core of relayd: it drains the
// bundle spool to the ingestion endpoint, reliably, without ever blocking
// the code that triggers it.
//
// TriggerFlush is the single public entry point. It is safe from any
// goroutine, returns immediately, and coalesces: while a flush session is
// active, further triggers collapse into at most one follow-up re-drain.
// The actual work runs on the goroutine hosting Run, which serialises all
// spool and transport access — at most one session ever exists, so no
// bundle can be sent twice within a pass and metadata writes never
// interleave.
//
// Within a session, bundles are attempted in creation order. A retryable
// failure defers only the failing bundle (exponential backoff recorded in
// its spool metadata); a permanent rejection abandons it; retry exhaustion
// abandons it tagged "max attempts exceeded"; an unreachable endpoint
// aborts the whole pass with the backlog left untouched. Every disposal is
// reported through the Diagnostics interface — no failure ever surfaces to
// the caller of TriggerFlush.
package engine
