package admin

import "github.com/obsidianstack/relayd/internal/diag"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State     string        `json:"state"` // "draining" | "idle"
	Pending   int           `json:"pending_bundles"`
	SpoolDir  string        `json:"spool_dir"`
	Endpoint  string        `json:"endpoint"`
	WSClients int           `json:"ws_clients"`
	Totals    diag.Snapshot `json:"totals"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
