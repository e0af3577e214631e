package diag

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/obsidianstack/relayd/internal/engine"
)

// Counters accumulates delivery totals across the process lifetime. It
// implements the engine's Diagnostics interface and is read by the admin
// surface (JSON health and Prometheus text exposition).
type Counters struct {
	sent        atomic.Uint64
	retries     atomic.Uint64
	abandoned   atomic.Uint64
	rejected    atomic.Uint64
	unreachable atomic.Uint64
	sessions    atomic.Uint64

	mu        sync.Mutex
	lastFlush time.Time
}

func NewCounters() *Counters { return &Counters{} }

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Sent        uint64    `json:"bundles_sent"`
	Retries     uint64    `json:"retries_scheduled"`
	Abandoned   uint64    `json:"bundles_abandoned"`
	Rejected    uint64    `json:"bundles_rejected"`
	Unreachable uint64    `json:"endpoint_unreachable"`
	Sessions    uint64    `json:"flush_passes"`
	LastFlush   time.Time `json:"last_flush,omitempty"`
}

// Read returns the current totals.
func (c *Counters) Read() Snapshot {
	c.mu.Lock()
	last := c.lastFlush
	c.mu.Unlock()
	return Snapshot{
		Sent:        c.sent.Load(),
		Retries:     c.retries.Load(),
		Abandoned:   c.abandoned.Load(),
		Rejected:    c.rejected.Load(),
		Unreachable: c.unreachable.Load(),
		Sessions:    c.sessions.Load(),
		LastFlush:   last,
	}
}

func (c *Counters) BundleSent(string) { c.sent.Add(1) }

func (c *Counters) BundleRetryScheduled(string, int, time.Duration) { c.retries.Add(1) }

func (c *Counters) BundleAbandoned(_, reason string) {
	c.abandoned.Add(1)
	// Abandonments from retry exhaustion and endpoint rejection are
	// tallied together in abandoned; rejections also count separately.
	if reason != engine.ReasonMaxAttempts {
		c.rejected.Add(1)
	}
}

func (c *Counters) EndpointUnreachable(string) { c.unreachable.Add(1) }

func (c *Counters) FlushFinished(uint64, int, int, int) {
	c.sessions.Add(1)
	c.mu.Lock()
	c.lastFlush = time.Now().UTC()
	c.mu.Unlock()
}
