// Package admin implements the local HTTP observability surface of relayd.
//
// New(store, engine, counters, hub, endpoint) returns an http.Handler serving:
//
//	GET  /api/v1/health — spool backlog, engine state, delivery totals (JSON)
//	POST /api/v1/flush  — operator-initiated flush trigger (202, asynchronous)
//	GET  /metrics       — the same totals in Prometheus text exposition format
//
// The WebSocket event stream lives in package ws and is mounted next to
// this handler by the daemon. No external HTTP framework is used.
package admin
