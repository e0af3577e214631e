package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/obsidianstack/relayd/internal/diag"
	"github.com/obsidianstack/relayd/internal/engine"
	"github.com/obsidianstack/relayd/internal/spool"
)

// clientCounter reports how many event-stream clients are connected.
// Implemented by *ws.Hub.
type clientCounter interface {
	Count() int
}

// Handler is the HTTP handler for the admin surface.
// It reads delivery state from the spool, the engine and the counters and
// returns JSON or Prometheus text responses.
type Handler struct {
	store    *spool.Store
	eng      *engine.Engine
	counters *diag.Counters
	hub      clientCounter
	endpoint string
	mux      *http.ServeMux
}

// New creates a Handler wired to the given components and registers all
// routes. hub may be nil when the event stream is disabled.
func New(store *spool.Store, eng *engine.Engine, counters *diag.Counters, hub clientCounter, endpoint string) http.Handler {
	h := &Handler{
		store:    store,
		eng:      eng,
		counters: counters,
		hub:      hub,
		endpoint: endpoint,
		mux:      http.NewServeMux(),
	}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/flush", h.flush)
	h.mux.HandleFunc("/metrics", h.metrics)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — spool backlog, engine state and
// delivery totals.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pending, err := h.store.Pending()
	if err != nil {
		slog.Error("admin: pending count failed", "err", err)
		jsonErr(w, http.StatusInternalServerError, "spool unavailable")
		return
	}

	resp := HealthResponse{
		State:    "idle",
		Pending:  pending,
		SpoolDir: h.store.Dir(),
		Endpoint: h.endpoint,
		Totals:   h.counters.Read(),
	}
	if h.eng.Active() {
		resp.State = "draining"
	}
	if h.hub != nil {
		resp.WSClients = h.hub.Count()
	}

	jsonResp(w, http.StatusOK, resp)
}

// flush handles POST /api/v1/flush — an operator-initiated flush trigger.
// Always 202: the trigger is asynchronous and coalesced by the engine.
func (h *Handler) flush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.eng.TriggerFlush()
	jsonResp(w, http.StatusAccepted, map[string]string{"status": "flush triggered"})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
