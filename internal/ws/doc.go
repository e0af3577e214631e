// Package ws streams delivery diagnostics to WebSocket clients on the admin
// port. The Hub implements the engine's Diagnostics interface: every event
// (bundle_sent, bundle_retry_scheduled, bundle_abandoned,
// endpoint_unreachable, flush_finished) is pushed to all connected clients
// as a JSON envelope the moment it happens.
//
// Slow clients are disconnected rather than allowed to backpressure the
// flush worker: the per-client buffer holds 64 messages and a full buffer
// drops the connection. Liveness uses the standard ping/pong protocol.
package ws
